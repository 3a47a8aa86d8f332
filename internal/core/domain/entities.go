package domain

import (
	"fmt"
	"time"
)

// Field identifies one of the two location inputs.
type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool { return f == FieldStart || f == FieldEnd }

// Place is a location lookup result.
type Place struct {
	ID          string   `json:"id,omitempty"`
	Label       string   `json:"label"`
	Location    GeoPoint `json:"location"`
	Category    string   `json:"category,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	Importance  float64  `json:"importance,omitempty"`
}

// SearchTier is one step of the widening ladder. A nil Scope means unrestricted.
type SearchTier struct {
	Name  string       `json:"name"`
	Scope *BoundingBox `json:"scope,omitempty"`
}

// Unrestricted reports whether the tier carries no geographic constraint.
func (t SearchTier) Unrestricted() bool { return t.Scope == nil }

// SearchTiers is ordered from most to least restrictive.
type SearchTiers []SearchTier

// Validate checks the ladder: at least one tier, valid boxes, non-decreasing
// area and an unrestricted final tier.
func (ts SearchTiers) Validate() error {
	if len(ts) == 0 {
		return fmt.Errorf("search tiers: at least one tier required")
	}
	prev := -1.0
	for i, t := range ts {
		last := i == len(ts)-1
		if t.Scope == nil {
			if !last {
				return fmt.Errorf("search tiers: only the last tier may be unrestricted (tier %d %q)", i, t.Name)
			}
			continue
		}
		if last {
			return fmt.Errorf("search tiers: last tier %q must be unrestricted", t.Name)
		}
		if err := t.Scope.Validate(); err != nil {
			return fmt.Errorf("search tiers: tier %d %q: %w", i, t.Name, err)
		}
		area := t.Scope.Area()
		if area < prev {
			return fmt.Errorf("search tiers: tier %d %q is narrower than the tier before it", i, t.Name)
		}
		prev = area
	}
	return nil
}

// DefaultSearchTiers is the Bangalore, Karnataka, India ladder.
func DefaultSearchTiers() SearchTiers {
	return SearchTiers{
		{Name: "bangalore", Scope: &BoundingBox{MinLon: 77.3733, MinLat: 12.7343, MaxLon: 77.8721, MaxLat: 13.1377}},
		{Name: "karnataka", Scope: &BoundingBox{MinLon: 74.0411, MinLat: 11.5933, MaxLon: 78.5883, MaxLat: 18.4506}},
		{Name: "india", Scope: &BoundingBox{MinLon: 68.1766, MinLat: 6.7471, MaxLon: 97.4026, MaxLat: 35.5087}},
		{Name: "anywhere"},
	}
}

// Directions is a computed route with its length.
type Directions struct {
	Route  RoutePath
	Meters float64
}

// Camera is the full map camera state.
type Camera struct {
	Center  GeoPoint `json:"center"`
	Zoom    float64  `json:"zoom"`
	Bearing float64  `json:"bearing"`
	Pitch   float64  `json:"pitch"`
}

// CameraUpdate is a partial camera change; nil fields stay as they are.
type CameraUpdate struct {
	Center  *GeoPoint `json:"center,omitempty"`
	Zoom    *float64  `json:"zoom,omitempty"`
	Bearing *float64  `json:"bearing,omitempty"`
	Pitch   *float64  `json:"pitch,omitempty"`
}

// Apply returns c with u applied.
func (c Camera) Apply(u CameraUpdate) Camera {
	if u.Center != nil {
		c.Center = *u.Center
	}
	if u.Zoom != nil {
		c.Zoom = *u.Zoom
	}
	if u.Bearing != nil {
		c.Bearing = *u.Bearing
	}
	if u.Pitch != nil {
		c.Pitch = *u.Pitch
	}
	return c
}

// LightPreset is a named scene lighting configuration.
type LightPreset string

const (
	LightDawn  LightPreset = "dawn"
	LightDay   LightPreset = "day"
	LightDusk  LightPreset = "dusk"
	LightNight LightPreset = "night"
)

// LightPresets lists every preset in daily order.
var LightPresets = []LightPreset{LightDawn, LightDay, LightDusk, LightNight}

// ParseLightPreset validates a preset name.
func ParseLightPreset(s string) (LightPreset, error) {
	for _, p := range LightPresets {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// MarkerKind identifies a marker on the map.
type MarkerKind string

const (
	MarkerStart MarkerKind = "start"
	MarkerEnd   MarkerKind = "end"
	MarkerUser  MarkerKind = "user"
)

// MarkerFor returns the marker that shows a field's selection.
func MarkerFor(f Field) MarkerKind {
	if f == FieldEnd {
		return MarkerEnd
	}
	return MarkerStart
}

// ControlKind names one of the fixed set of map controls.
type ControlKind string

const (
	ControlPanToRoute ControlKind = "pan_to_route"
	ControlPitch      ControlKind = "pitch"
	ControlBearing    ControlKind = "bearing"
	ControlZoom       ControlKind = "zoom"
	ControlTimeOfDay  ControlKind = "time_of_day"
)

// ControlKinds lists every control in mount order.
var ControlKinds = []ControlKind{ControlPanToRoute, ControlPitch, ControlBearing, ControlZoom, ControlTimeOfDay}

// ControlButton is one clickable element of a control.
type ControlButton struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// ControlSpec tells the client how to draw a control.
type ControlSpec struct {
	Kind     ControlKind     `json:"kind"`
	Position string          `json:"position"`
	Buttons  []ControlButton `json:"buttons"`
}

// SessionEventType names an interaction event published for analytics.
type SessionEventType string

const (
	EventSessionStarted SessionEventType = "session_started"
	EventSearchDone     SessionEventType = "search_done"
	EventRoutePlayed    SessionEventType = "route_played"
	EventPresetApplied  SessionEventType = "preset_applied"
	EventSessionClosed  SessionEventType = "session_closed"
)

// SessionEvent is an interaction event of one map session.
type SessionEvent struct {
	SessionID  string            `json:"session_id"`
	Type       SessionEventType  `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
