package usecases

import (
	"fmt"
	"time"

	"go.mau.fi/util/ptr"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
)

// ControlsConfig holds the camera values the map controls toggle between.
type ControlsConfig struct {
	TiltedPitch   float64
	TurnedBearing float64
	ZoomStep      float64
	FitPadding    int
	EaseDuration  time.Duration
}

// DefaultControlsConfig toggles pitch 0/60, bearing 0/180 and zooms one level.
func DefaultControlsConfig() ControlsConfig {
	return ControlsConfig{
		TiltedPitch:   60,
		TurnedBearing: 180,
		ZoomStep:      1,
		FitPadding:    50,
		EaseDuration:  500 * time.Millisecond,
	}
}

// ControlEnv is what controls act on.
type ControlEnv struct {
	Renderer ports.MapRenderer
	Light    *LightScheduler
	// Route returns the last fetched route.
	Route  func() (domain.RoutePath, bool)
	Config ControlsConfig
}

// Control is one of the fixed set of on-map controls.
type Control interface {
	Spec() domain.ControlSpec
	Mount(p ports.Presenter)
	Unmount(p ports.Presenter)
	Press(action string) error
}

// Control button actions.
const (
	ActionPress     = "press"
	ActionZoomIn    = "zoom_in"
	ActionZoomOut   = "zoom_out"
	ActionTimeDawn  = string(domain.LightDawn)
	ActionTimeDay   = string(domain.LightDay)
	ActionTimeDusk  = string(domain.LightDusk)
	ActionTimeNight = string(domain.LightNight)
)

// NewControl builds the control of the given kind.
func NewControl(kind domain.ControlKind, env ControlEnv) (Control, error) {
	switch kind {
	case domain.ControlPanToRoute:
		return &panToRouteControl{
			controlBase: controlBase{spec: domain.ControlSpec{Kind: kind, Position: "top-right",
				Buttons: []domain.ControlButton{{Action: ActionPress, Title: "Pan to route", Icon: "route"}}}},
			env: env,
		}, nil
	case domain.ControlPitch:
		return &pitchControl{
			controlBase: controlBase{spec: domain.ControlSpec{Kind: kind, Position: "top-right",
				Buttons: []domain.ControlButton{{Action: ActionPress, Title: "Toggle pitch", Icon: "pitch"}}}},
			env: env,
		}, nil
	case domain.ControlBearing:
		return &bearingControl{
			controlBase: controlBase{spec: domain.ControlSpec{Kind: kind, Position: "top-right",
				Buttons: []domain.ControlButton{{Action: ActionPress, Title: "Toggle bearing", Icon: "compass"}}}},
			env: env,
		}, nil
	case domain.ControlZoom:
		return &zoomControl{
			controlBase: controlBase{spec: domain.ControlSpec{Kind: kind, Position: "top-right",
				Buttons: []domain.ControlButton{
					{Action: ActionZoomIn, Title: "Zoom in", Icon: "plus"},
					{Action: ActionZoomOut, Title: "Zoom out", Icon: "minus"},
				}}},
			env: env,
		}, nil
	case domain.ControlTimeOfDay:
		if env.Light == nil {
			return nil, fmt.Errorf("%w: %s needs a light scheduler", domain.ErrUnknownControl, kind)
		}
		return &timeOfDayControl{
			controlBase: controlBase{spec: domain.ControlSpec{Kind: kind, Position: "bottom-left",
				Buttons: []domain.ControlButton{
					{Action: ActionTimeDawn, Title: "Dawn"},
					{Action: ActionTimeDay, Title: "Day"},
					{Action: ActionTimeDusk, Title: "Dusk"},
					{Action: ActionTimeNight, Title: "Night"},
				}}},
			env: env,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownControl, kind)
}

type controlBase struct {
	spec domain.ControlSpec
}

func (c *controlBase) Spec() domain.ControlSpec    { return c.spec }
func (c *controlBase) Mount(p ports.Presenter)     { p.MountControl(c.spec) }
func (c *controlBase) Unmount(p ports.Presenter)   { p.UnmountControl(c.spec.Kind) }
func (c *controlBase) unknown(action string) error { return fmt.Errorf("%w: %s/%q", domain.ErrUnknownAction, c.spec.Kind, action) }

type panToRouteControl struct {
	controlBase
	env ControlEnv
}

func (c *panToRouteControl) Press(action string) error {
	if action != ActionPress {
		return c.unknown(action)
	}
	r, ok := c.env.Route()
	if !ok {
		return domain.ErrNoActiveRoute
	}
	c.env.Renderer.FitBounds(r.Bounds(), c.env.Config.FitPadding)
	return nil
}

type pitchControl struct {
	controlBase
	env ControlEnv
}

func (c *pitchControl) Press(action string) error {
	if action != ActionPress {
		return c.unknown(action)
	}
	pitch := c.env.Config.TiltedPitch
	if c.env.Renderer.Camera().Pitch == c.env.Config.TiltedPitch {
		pitch = 0
	}
	c.env.Renderer.EaseCamera(domain.CameraUpdate{Pitch: ptr.Ptr(pitch)}, c.env.Config.EaseDuration)
	return nil
}

type bearingControl struct {
	controlBase
	env ControlEnv
}

func (c *bearingControl) Press(action string) error {
	if action != ActionPress {
		return c.unknown(action)
	}
	bearing := c.env.Config.TurnedBearing
	if c.env.Renderer.Camera().Bearing != 0 {
		bearing = 0
	}
	c.env.Renderer.EaseCamera(domain.CameraUpdate{Bearing: ptr.Ptr(bearing)}, c.env.Config.EaseDuration)
	return nil
}

const (
	minZoom = 0
	maxZoom = 22
)

type zoomControl struct {
	controlBase
	env ControlEnv
}

func (c *zoomControl) Press(action string) error {
	zoom := c.env.Renderer.CurrentZoom()
	switch action {
	case ActionZoomIn:
		zoom += c.env.Config.ZoomStep
	case ActionZoomOut:
		zoom -= c.env.Config.ZoomStep
	default:
		return c.unknown(action)
	}
	zoom = min(max(zoom, minZoom), maxZoom)
	c.env.Renderer.EaseCamera(domain.CameraUpdate{Zoom: ptr.Ptr(zoom)}, c.env.Config.EaseDuration)
	return nil
}

type timeOfDayControl struct {
	controlBase
	env ControlEnv
}

func (c *timeOfDayControl) Press(action string) error {
	p, err := domain.ParseLightPreset(action)
	if err != nil {
		return c.unknown(action)
	}
	c.env.Light.Select(p)
	return nil
}
