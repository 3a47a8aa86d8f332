package ports

import (
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
)

// MapRenderer executes camera, overlay and marker commands on the client map.
type MapRenderer interface {
	SetCamera(cam domain.Camera)
	EaseCamera(update domain.CameraUpdate, duration time.Duration)
	// FitBounds frames box with padding pixels on every side, flattening the pitch.
	FitBounds(box domain.BoundingBox, padding int)
	DrawRoute(route domain.RoutePath)
	SetLightPreset(preset domain.LightPreset)
	SetMarker(kind domain.MarkerKind, at domain.GeoPoint)
	RemoveMarker(kind domain.MarkerKind)

	// Camera returns the last known camera state.
	Camera() domain.Camera
	CurrentZoom() float64
}

// Presenter shows search results, failures and controls in the page.
type Presenter interface {
	ShowResults(field domain.Field, query string, places []domain.Place)
	ShowFailure(f *domain.Failure)
	SetInputText(field domain.Field, text string)
	MountControl(spec domain.ControlSpec)
	UnmountControl(kind domain.ControlKind)
}
