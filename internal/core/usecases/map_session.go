package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.mau.fi/util/ptr"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
)

// SessionConfig configures a map session.
type SessionConfig struct {
	Tiers       domain.SearchTiers
	Policy      WidenPolicy
	Animation   AnimationConfig
	Controls    ControlsConfig
	Light       LightBoundaries
	LightTick   string
	Location    *time.Location
	Home        domain.Camera
	PanDuration time.Duration
}

// DefaultSessionConfig frames Bangalore at street level.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Tiers:       domain.DefaultSearchTiers(),
		Policy:      DefaultWidenPolicy(),
		Animation:   DefaultAnimationConfig(),
		Controls:    DefaultControlsConfig(),
		Light:       DefaultLightBoundaries(),
		LightTick:   DefaultLightTick,
		Location:    time.Local,
		Home:        domain.Camera{Center: domain.GeoPoint{Lon: 77.5946, Lat: 12.9716}, Zoom: 17, Pitch: 60},
		PanDuration: 2 * time.Second,
	}
}

// SessionDeps are the collaborators of a map session. Events may be nil.
type SessionDeps struct {
	Loop      ports.EventLoop
	Renderer  ports.MapRenderer
	Presenter ports.Presenter
	Lookup    ports.LocationLookup
	Routes    ports.RouteFetcher
	Events    ports.EventPublisher
	Logger    *slog.Logger
}

// MapSession is the state of one connected map page: chosen endpoints, the
// last route, and the widener, animator and light scheduler acting on it.
// Every method must be called on the session loop.
type MapSession struct {
	id     string
	cfg    SessionConfig
	deps   SessionDeps
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	start *domain.GeoPoint
	end   *domain.GeoPoint
	route domain.RoutePath

	routeToken uint64
	wideners   map[domain.Field]*SearchWidener
	animator   *RouteAnimator
	light      *LightScheduler
	controls   []Control
	opened     bool
	closed     bool
}

// NewMapSession wires a session. Call Open to show the map.
func NewMapSession(id string, deps SessionDeps, cfg SessionConfig) (*MapSession, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &MapSession{
		id:       id,
		cfg:      cfg,
		deps:     deps,
		logger:   logger.With("session_id", id),
		ctx:      ctx,
		cancel:   cancel,
		wideners: make(map[domain.Field]*SearchWidener, 2),
	}

	for _, f := range []domain.Field{domain.FieldStart, domain.FieldEnd} {
		w, err := NewSearchWidener(cfg.Tiers, cfg.Policy, s.issueSearch(f), s.searchDone(f))
		if err != nil {
			cancel()
			return nil, err
		}
		s.wideners[f] = w
	}

	animator, err := NewRouteAnimator(deps.Renderer, deps.Loop, cfg.Animation, func(st AnimationState) {
		metrics.AnimationStages.WithLabelValues(st.String()).Inc()
	})
	if err != nil {
		cancel()
		return nil, err
	}
	s.animator = animator

	light, err := NewLightScheduler(deps.Renderer, deps.Loop.Now, cfg.Location, cfg.Light, s.presetApplied)
	if err != nil {
		cancel()
		return nil, err
	}
	s.light = light

	env := ControlEnv{Renderer: deps.Renderer, Light: light, Route: s.Route, Config: cfg.Controls}
	for _, kind := range domain.ControlKinds {
		c, err := NewControl(kind, env)
		if err != nil {
			cancel()
			return nil, err
		}
		s.controls = append(s.controls, c)
	}
	return s, nil
}

// ID returns the session id.
func (s *MapSession) ID() string { return s.id }

// Open frames the map on the device position, or the home camera when there
// is none, mounts the controls and starts the light schedule.
func (s *MapSession) Open(device *domain.GeoPoint) error {
	if s.opened {
		return nil
	}
	s.opened = true

	cam := s.cfg.Home
	if device != nil && device.Valid() {
		cam.Center = *device
		s.deps.Renderer.SetMarker(domain.MarkerUser, *device)
	}
	s.deps.Renderer.SetCamera(cam)

	for _, c := range s.controls {
		c.Mount(s.deps.Presenter)
	}

	s.light.ApplyInitial()
	if err := s.light.Start(s.deps.Loop, s.cfg.LightTick); err != nil {
		return err
	}

	s.publish(domain.EventSessionStarted, nil)
	s.logger.Info("map session opened", "center", cam.Center.String())
	return nil
}

// Search starts a widening search for field, superseding any in-flight one.
func (s *MapSession) Search(field domain.Field, query string) error {
	w, ok := s.wideners[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		s.fail(domain.FailureValidation, domain.MsgEmptyQuery, domain.ErrEmptyQuery)
		return domain.ErrEmptyQuery
	}
	w.Submit(query)
	return nil
}

func (s *MapSession) issueSearch(field domain.Field) func(SearchRequest) {
	return func(req SearchRequest) {
		s.logger.Debug("search lookup", "field", field, "query", req.Query, "tier", req.Scope.Name)
		s.deps.Loop.Go(s.ctx, func(ctx context.Context) func() {
			places, err := s.deps.Lookup.Lookup(ctx, req.Query, req.Scope.Scope)
			return func() {
				if s.closed {
					return
				}
				if !s.wideners[field].OnResults(req.Token, places, err) {
					s.stale("search")
				}
			}
		})
	}
}

func (s *MapSession) searchDone(field domain.Field) func(SearchOutcome) {
	return func(out SearchOutcome) {
		for _, r := range out.Widened {
			metrics.SearchWidenings.WithLabelValues(string(r)).Inc()
		}
		tier := s.cfg.Tiers[out.Tier].Name
		if out.Err != nil {
			metrics.Searches.WithLabelValues(string(field), tier, "error").Inc()
			s.fail(domain.FailureSearch, domain.MsgSearchFailed, out.Err)
			return
		}
		outcome := "found"
		if len(out.Places) == 0 {
			outcome = "empty"
		}
		metrics.Searches.WithLabelValues(string(field), tier, outcome).Inc()
		s.deps.Presenter.ShowResults(field, out.Query, out.Places)
		s.publish(domain.EventSearchDone, map[string]string{
			"field":   string(field),
			"tier":    tier,
			"results": strconv.Itoa(len(out.Places)),
		})
	}
}

// SelectPlace records a chosen search result as the field's endpoint.
func (s *MapSession) SelectPlace(field domain.Field, place domain.Place) error {
	w, ok := s.wideners[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	if !place.Location.Valid() {
		return domain.ErrInvalidCoordinates
	}
	w.Cancel()

	loc := place.Location
	s.setEndpoint(field, loc)
	s.deps.Renderer.SetMarker(domain.MarkerFor(field), loc)
	if field == domain.FieldStart {
		s.panTo(loc)
	}
	if place.Label != "" {
		s.deps.Presenter.SetInputText(field, place.Label)
	}
	return nil
}

// UseDeviceLocation makes the device position the start point.
func (s *MapSession) UseDeviceLocation(p domain.GeoPoint) error {
	if !p.Valid() {
		return domain.ErrInvalidCoordinates
	}
	s.wideners[domain.FieldStart].Cancel()
	s.setEndpoint(domain.FieldStart, p)
	s.deps.Renderer.RemoveMarker(domain.MarkerStart)
	s.panTo(p)
	s.deps.Presenter.SetInputText(domain.FieldStart, p.LatLonText())
	return nil
}

// DeviceLocationFailed reports that the device position could not be read.
// No search is started in its place.
func (s *MapSession) DeviceLocationFailed(unsupported bool) {
	msg := domain.MsgLocationUnavailable
	if unsupported {
		msg = domain.MsgGeolocationUnsupported
	}
	s.fail(domain.FailureGeolocation, msg, nil)
}

// TrackUser moves the user position marker.
func (s *MapSession) TrackUser(p domain.GeoPoint) error {
	if !p.Valid() {
		return domain.ErrInvalidCoordinates
	}
	s.deps.Renderer.SetMarker(domain.MarkerUser, p)
	return nil
}

// RequestRoute fetches a route between the chosen endpoints and plays it.
// A newer request supersedes an older one still in flight.
func (s *MapSession) RequestRoute() error {
	if s.start == nil || s.end == nil {
		s.fail(domain.FailureValidation, domain.MsgMissingEndpoints, domain.ErrMissingEndpoint)
		return domain.ErrMissingEndpoint
	}
	s.routeToken++
	token := s.routeToken
	start, end := *s.start, *s.end

	s.deps.Loop.Go(s.ctx, func(ctx context.Context) func() {
		route, err := s.deps.Routes.Fetch(ctx, start, end)
		return func() { s.routeFetched(token, start, route, err) }
	})
	return nil
}

func (s *MapSession) routeFetched(token uint64, start domain.GeoPoint, route domain.RoutePath, err error) {
	if s.closed || token != s.routeToken {
		s.stale("route")
		return
	}
	if err == nil {
		err = s.animator.Play(route, start)
	}
	if err != nil {
		s.fail(domain.FailureRouteFetch, domain.MsgRouteFetchFailed, err)
		return
	}
	s.route = route
	s.publish(domain.EventRoutePlayed, map[string]string{
		"points": strconv.Itoa(route.Len()),
		"start":  start.String(),
		"end":    route.End().String(),
	})
}

// PressControl forwards a button press to a mounted control.
func (s *MapSession) PressControl(kind domain.ControlKind, action string) error {
	for _, c := range s.controls {
		if c.Spec().Kind == kind {
			return c.Press(action)
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownControl, kind)
}

// Close cancels every pending timer and lookup and unmounts the controls.
// It is idempotent.
func (s *MapSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.animator.Dispose()
	for _, w := range s.wideners {
		w.Cancel()
	}
	s.light.Stop()
	if s.opened {
		for _, c := range s.controls {
			c.Unmount(s.deps.Presenter)
		}
	}
	s.publish(domain.EventSessionClosed, nil)
	s.logger.Info("map session closed")
}

// StartPoint returns the chosen start.
func (s *MapSession) StartPoint() (domain.GeoPoint, bool) { return deref(s.start) }

// EndPoint returns the chosen destination.
func (s *MapSession) EndPoint() (domain.GeoPoint, bool) { return deref(s.end) }

// Route returns the last route that was played.
func (s *MapSession) Route() (domain.RoutePath, bool) { return s.route, !s.route.Empty() }

// Animator exposes the route animator.
func (s *MapSession) Animator() *RouteAnimator { return s.animator }

// Light exposes the light scheduler.
func (s *MapSession) Light() *LightScheduler { return s.light }

// Controls returns the mounted controls in mount order.
func (s *MapSession) Controls() []Control { return s.controls }

func deref(p *domain.GeoPoint) (domain.GeoPoint, bool) {
	if p == nil {
		return domain.GeoPoint{}, false
	}
	return *p, true
}

func (s *MapSession) setEndpoint(field domain.Field, p domain.GeoPoint) {
	if field == domain.FieldEnd {
		s.end = ptr.Ptr(p)
		return
	}
	s.start = ptr.Ptr(p)
}

func (s *MapSession) panTo(p domain.GeoPoint) {
	s.deps.Renderer.EaseCamera(domain.CameraUpdate{
		Center: ptr.Ptr(p),
		Zoom:   ptr.Ptr(s.cfg.Home.Zoom),
	}, s.cfg.PanDuration)
}

func (s *MapSession) presetApplied(p domain.LightPreset, reason LightApplyReason) {
	metrics.LightPresetsApplied.WithLabelValues(string(p), string(reason)).Inc()
	s.publish(domain.EventPresetApplied, map[string]string{"preset": string(p), "reason": string(reason)})
}

func (s *MapSession) fail(kind domain.FailureKind, msg string, err error) {
	metrics.UserFailures.WithLabelValues(string(kind)).Inc()
	if err != nil && kind != domain.FailureValidation {
		s.logger.Warn("session failure", "kind", kind, "error", err)
	}
	s.deps.Presenter.ShowFailure(domain.NewFailure(kind, msg, err))
}

func (s *MapSession) stale(kind string) {
	metrics.StaleCallbacks.WithLabelValues(kind).Inc()
	s.logger.Debug("dropped stale completion", "kind", kind)
}

func (s *MapSession) publish(t domain.SessionEventType, attrs map[string]string) {
	if s.deps.Events == nil {
		return
	}
	evt := &domain.SessionEvent{
		SessionID:  s.id,
		Type:       t,
		OccurredAt: s.deps.Loop.Now().UTC(),
		Attributes: attrs,
	}
	if err := s.deps.Events.PublishSessionEvent(context.Background(), evt); err != nil {
		s.logger.Warn("publish session event", "type", t, "error", err)
	}
}
