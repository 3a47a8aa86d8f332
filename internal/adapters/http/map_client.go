package http

import (
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
)

// Server to client message types.
const (
	msgSessionOpen    = "session.open"
	msgCameraSet      = "camera.set"
	msgCameraEase     = "camera.ease"
	msgCameraFit      = "camera.fit"
	msgRouteDraw      = "route.draw"
	msgLightSet       = "light.set"
	msgMarkerSet      = "marker.set"
	msgMarkerRemove   = "marker.remove"
	msgSearchResults  = "search.results"
	msgFailure        = "failure"
	msgInputSet       = "input.set"
	msgControlMount   = "control.mount"
	msgControlUnmount = "control.unmount"
	msgError          = "error"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
	maxZoom               = 22
	tileSize              = 512
)

type wsFailure struct {
	Kind    domain.FailureKind `json:"kind"`
	Message string             `json:"message"`
}

// wsServerMessage is every message the server pushes to the page.
type wsServerMessage struct {
	Type       string               `json:"type"`
	SessionID  string               `json:"session_id,omitempty"`
	Camera     *domain.Camera       `json:"camera,omitempty"`
	Update     *domain.CameraUpdate `json:"update,omitempty"`
	DurationMS int64                `json:"duration_ms,omitempty"`
	BBox       []float64            `json:"bbox,omitempty"`
	Padding    int                  `json:"padding,omitempty"`
	Route      *geojson.Geometry    `json:"route,omitempty"`
	Preset     domain.LightPreset   `json:"preset,omitempty"`
	Marker     domain.MarkerKind    `json:"marker,omitempty"`
	Location   *domain.GeoPoint     `json:"location,omitempty"`
	Field      domain.Field         `json:"field,omitempty"`
	Query      string               `json:"query,omitempty"`
	Places     []domain.Place       `json:"places,omitempty"`
	Failure    *wsFailure           `json:"failure,omitempty"`
	Text       string               `json:"text,omitempty"`
	Control    *domain.ControlSpec  `json:"control,omitempty"`
	Kind       domain.ControlKind   `json:"kind,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// mapClient renders a session onto a browser page over a message channel.
// It keeps a mirror of the page camera, advanced by every command it sends
// and corrected by camera reports from the page.
type mapClient struct {
	send   func(wsServerMessage) error
	logger *slog.Logger
	camera domain.Camera
	width  int
	height int
}

var (
	_ ports.MapRenderer = (*mapClient)(nil)
	_ ports.Presenter   = (*mapClient)(nil)
)

func newMapClient(send func(wsServerMessage) error, width, height int, logger *slog.Logger) *mapClient {
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &mapClient{send: send, logger: logger, width: width, height: height}
}

func (m *mapClient) emit(msg wsServerMessage) {
	if err := m.send(msg); err != nil {
		m.logger.Debug("ws send failed", "type", msg.Type, "error", err)
	}
}

func (m *mapClient) sendError(err error) {
	m.emit(wsServerMessage{Type: msgError, Error: err.Error()})
}

// syncCamera records the camera the page reports after user gestures.
func (m *mapClient) syncCamera(cam domain.Camera) {
	m.camera = cam
}

func (m *mapClient) SetCamera(cam domain.Camera) {
	m.camera = cam
	m.emit(wsServerMessage{Type: msgCameraSet, Camera: &cam})
}

func (m *mapClient) EaseCamera(update domain.CameraUpdate, duration time.Duration) {
	m.camera = m.camera.Apply(update)
	m.emit(wsServerMessage{Type: msgCameraEase, Update: &update, DurationMS: duration.Milliseconds()})
}

func (m *mapClient) FitBounds(box domain.BoundingBox, padding int) {
	m.camera = domain.Camera{
		Center: domain.GeoPoint{Lon: (box.MinLon + box.MaxLon) / 2, Lat: (box.MinLat + box.MaxLat) / 2},
		Zoom:   fitZoom(box, m.width, m.height, padding),
	}
	m.emit(wsServerMessage{Type: msgCameraFit, BBox: box.Slice(), Padding: padding})
}

func (m *mapClient) DrawRoute(route domain.RoutePath) {
	m.emit(wsServerMessage{Type: msgRouteDraw, Route: geojson.NewGeometry(route.LineString())})
}

func (m *mapClient) SetLightPreset(preset domain.LightPreset) {
	m.emit(wsServerMessage{Type: msgLightSet, Preset: preset})
}

func (m *mapClient) SetMarker(kind domain.MarkerKind, at domain.GeoPoint) {
	m.emit(wsServerMessage{Type: msgMarkerSet, Marker: kind, Location: &at})
}

func (m *mapClient) RemoveMarker(kind domain.MarkerKind) {
	m.emit(wsServerMessage{Type: msgMarkerRemove, Marker: kind})
}

func (m *mapClient) Camera() domain.Camera { return m.camera }

func (m *mapClient) CurrentZoom() float64 { return m.camera.Zoom }

func (m *mapClient) ShowResults(field domain.Field, query string, places []domain.Place) {
	m.emit(wsServerMessage{Type: msgSearchResults, Field: field, Query: query, Places: places})
}

func (m *mapClient) ShowFailure(f *domain.Failure) {
	m.emit(wsServerMessage{Type: msgFailure, Failure: &wsFailure{Kind: f.Kind, Message: f.Message}})
}

func (m *mapClient) SetInputText(field domain.Field, text string) {
	m.emit(wsServerMessage{Type: msgInputSet, Field: field, Text: text})
}

func (m *mapClient) MountControl(spec domain.ControlSpec) {
	m.emit(wsServerMessage{Type: msgControlMount, Control: &spec})
}

func (m *mapClient) UnmountControl(kind domain.ControlKind) {
	m.emit(wsServerMessage{Type: msgControlUnmount, Kind: kind})
}

// fitZoom is the web mercator zoom at which box fills the viewport inside
// padding, the same framing the page computes for fitBounds.
func fitZoom(box domain.BoundingBox, width, height, padding int) float64 {
	innerW := float64(width - 2*padding)
	innerH := float64(height - 2*padding)
	if innerW <= 0 || innerH <= 0 {
		return 0
	}

	dx := math.Abs(mercX(box.MaxLon) - mercX(box.MinLon))
	dy := math.Abs(mercY(box.MinLat) - mercY(box.MaxLat))

	scale := math.Inf(1)
	if dx > 0 {
		scale = innerW / (dx * tileSize)
	}
	if dy > 0 {
		scale = math.Min(scale, innerH/(dy*tileSize))
	}
	if math.IsInf(scale, 1) {
		return maxZoom
	}
	return math.Max(0, math.Min(maxZoom, math.Log2(scale)))
}

func mercX(lon float64) float64 { return (lon + 180) / 360 }

func mercY(lat float64) float64 {
	r := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(r)+1/math.Cos(r))/math.Pi) / 2
}
