package usecases_test

import (
	"context"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/pkg/eventloop"
)

// --- mock MapRenderer ---

type renderCall struct {
	Op       string
	Camera   domain.Camera
	Update   domain.CameraUpdate
	Duration time.Duration
	Box      domain.BoundingBox
	Padding  int
	Route    domain.RoutePath
	Preset   domain.LightPreset
	Marker   domain.MarkerKind
	At       domain.GeoPoint
}

type mockRenderer struct {
	calls []renderCall
	cam   domain.Camera
	// fitZoom is the zoom the map settles on after FitBounds.
	fitZoom float64
}

func newMockRenderer() *mockRenderer {
	return &mockRenderer{cam: domain.Camera{Zoom: 17, Pitch: 60}, fitZoom: 12.5}
}

func (m *mockRenderer) SetCamera(cam domain.Camera) {
	m.cam = cam
	m.calls = append(m.calls, renderCall{Op: "set_camera", Camera: cam})
}

func (m *mockRenderer) EaseCamera(u domain.CameraUpdate, d time.Duration) {
	m.cam = m.cam.Apply(u)
	m.calls = append(m.calls, renderCall{Op: "ease", Update: u, Duration: d})
}

func (m *mockRenderer) FitBounds(box domain.BoundingBox, padding int) {
	m.cam.Zoom = m.fitZoom
	m.cam.Pitch = 0
	m.calls = append(m.calls, renderCall{Op: "fit_bounds", Box: box, Padding: padding})
}

func (m *mockRenderer) DrawRoute(route domain.RoutePath) {
	m.calls = append(m.calls, renderCall{Op: "draw_route", Route: route})
}

func (m *mockRenderer) SetLightPreset(p domain.LightPreset) {
	m.calls = append(m.calls, renderCall{Op: "light", Preset: p})
}

func (m *mockRenderer) SetMarker(kind domain.MarkerKind, at domain.GeoPoint) {
	m.calls = append(m.calls, renderCall{Op: "set_marker", Marker: kind, At: at})
}

func (m *mockRenderer) RemoveMarker(kind domain.MarkerKind) {
	m.calls = append(m.calls, renderCall{Op: "remove_marker", Marker: kind})
}

func (m *mockRenderer) Camera() domain.Camera { return m.cam }
func (m *mockRenderer) CurrentZoom() float64  { return m.cam.Zoom }

func (m *mockRenderer) ops(op string) []renderCall {
	var out []renderCall
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockRenderer) reset() { m.calls = nil }

// --- mock Presenter ---

type mockPresenter struct {
	results  map[domain.Field][]domain.Place
	failures []*domain.Failure
	inputs   map[domain.Field]string
	mounted  []domain.ControlKind
	removed  []domain.ControlKind
}

func newMockPresenter() *mockPresenter {
	return &mockPresenter{
		results: map[domain.Field][]domain.Place{},
		inputs:  map[domain.Field]string{},
	}
}

func (m *mockPresenter) ShowResults(f domain.Field, _ string, p []domain.Place) { m.results[f] = p }
func (m *mockPresenter) ShowFailure(f *domain.Failure)                          { m.failures = append(m.failures, f) }
func (m *mockPresenter) SetInputText(f domain.Field, text string)               { m.inputs[f] = text }
func (m *mockPresenter) MountControl(s domain.ControlSpec)                      { m.mounted = append(m.mounted, s.Kind) }
func (m *mockPresenter) UnmountControl(k domain.ControlKind)                    { m.removed = append(m.removed, k) }

// --- mock LocationLookup ---

type mockLookup struct {
	lookupFn func(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error)
	calls    []*domain.BoundingBox
}

func (m *mockLookup) Lookup(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
	m.calls = append(m.calls, scope)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, query, scope)
	}
	return nil, nil
}

// --- mock RouteFetcher ---

type mockFetcher struct {
	fetchFn func(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error)
	calls   int
}

func (m *mockFetcher) Fetch(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, start, end)
	}
	return domain.NewRoutePath([]domain.GeoPoint{start, end})
}

// --- mock EventPublisher ---

type mockPublisher struct {
	events []*domain.SessionEvent
}

func (m *mockPublisher) PublishSessionEvent(_ context.Context, e *domain.SessionEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) types() []domain.SessionEventType {
	out := make([]domain.SessionEventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// --- mock CacheService ---

type mockCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- counting scheduler ---

// countingLoop counts periodic callback invocations on top of a Manual loop.
type countingLoop struct {
	*eventloop.Manual
	ticks int
}

func (c *countingLoop) Every(d time.Duration, fn func()) ports.Timer {
	return c.Manual.Every(d, func() {
		c.ticks++
		fn()
	})
}

var morning = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func route(t interface{ Fatalf(string, ...any) }, pts ...domain.GeoPoint) domain.RoutePath {
	r, err := domain.NewRoutePath(pts)
	if err != nil {
		t.Fatalf("NewRoutePath: %v", err)
	}
	return r
}
