package usecases

import (
	"fmt"
	"math"
	"time"

	"go.mau.fi/util/ptr"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
)

// AnimationConfig holds the timing and framing of the route fly-through.
type AnimationConfig struct {
	OverviewHold   time.Duration
	MidpointHold   time.Duration
	RotationPeriod time.Duration
	RotationStep   float64
	ReturnDelay    time.Duration
	FlyDuration    time.Duration
	ZoomDamping    float64
	MidpointPitch  float64
	FitPadding     int
	HomeZoom       float64
	HomePitch      float64
}

// DefaultAnimationConfig returns the stock fly-through timings.
func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		OverviewHold:   time.Second,
		MidpointHold:   2 * time.Second,
		RotationPeriod: 100 * time.Millisecond,
		RotationStep:   10,
		ReturnDelay:    time.Second,
		FlyDuration:    2 * time.Second,
		ZoomDamping:    0.98,
		MidpointPitch:  60,
		FitPadding:     50,
		HomeZoom:       17,
		HomePitch:      60,
	}
}

// Validate checks the configuration.
func (c AnimationConfig) Validate() error {
	switch {
	case c.RotationStep <= 0:
		return fmt.Errorf("animation: rotation step must be positive, got %v", c.RotationStep)
	case c.RotationPeriod <= 0:
		return fmt.Errorf("animation: rotation period must be positive, got %v", c.RotationPeriod)
	case c.OverviewHold < 0 || c.MidpointHold < 0 || c.ReturnDelay < 0 || c.FlyDuration < 0:
		return fmt.Errorf("animation: delays must not be negative")
	case c.ZoomDamping <= 0:
		return fmt.Errorf("animation: zoom damping must be positive, got %v", c.ZoomDamping)
	case c.FitPadding < 0:
		return fmt.Errorf("animation: fit padding must not be negative, got %d", c.FitPadding)
	}
	return nil
}

// RotationTicks returns how many periodic steps a full turn takes.
func (c AnimationConfig) RotationTicks() int {
	return int(math.Ceil(360 / c.RotationStep))
}

// AnimationState is a stage of the fly-through.
type AnimationState int

const (
	AnimationIdle AnimationState = iota
	AnimationOverview
	AnimationToMidpoint
	AnimationRotating
	AnimationReturning
)

func (s AnimationState) String() string {
	switch s {
	case AnimationOverview:
		return "overview"
	case AnimationToMidpoint:
		return "to_midpoint"
	case AnimationRotating:
		return "rotating"
	case AnimationReturning:
		return "returning"
	default:
		return "idle"
	}
}

// AnimationPlan is computed once per Play.
type AnimationPlan struct {
	Route      domain.RoutePath
	Start      domain.GeoPoint
	End        domain.GeoPoint
	Midpoint   domain.GeoPoint
	Bounds     domain.BoundingBox
	TargetZoom float64
	// Bearing sweeps from BearingFrom to BearingTo.
	BearingFrom float64
	BearingTo   float64
}

// sequence is the cancellation token of one Play.
type sequence struct {
	plan      AnimationPlan
	pending   ports.Timer
	rotation  ports.Timer
	bearing   float64
	cancelled bool
}

func (s *sequence) stop() {
	s.cancelled = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.rotation != nil {
		s.rotation.Stop()
		s.rotation = nil
	}
}

// RouteAnimator drives the overview, midpoint, rotation and return stages of
// a route fly-through. Only the session loop may call it.
type RouteAnimator struct {
	renderer ports.MapRenderer
	sched    ports.Scheduler
	cfg      AnimationConfig
	onState  func(AnimationState)

	state AnimationState
	seq   *sequence
}

// NewRouteAnimator creates an animator. onState, if not nil, is told about
// every stage change.
func NewRouteAnimator(renderer ports.MapRenderer, sched ports.Scheduler, cfg AnimationConfig, onState func(AnimationState)) (*RouteAnimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RouteAnimator{renderer: renderer, sched: sched, cfg: cfg, onState: onState}, nil
}

// Play cancels any running fly-through and starts a new one for route,
// returning to start at the end.
func (a *RouteAnimator) Play(route domain.RoutePath, start domain.GeoPoint) error {
	if route.Len() < 2 {
		return domain.ErrShortRoute
	}
	if !start.Valid() {
		return domain.ErrInvalidCoordinates
	}
	a.Cancel()

	end := route.End()
	seq := &sequence{plan: AnimationPlan{
		Route:     route,
		Start:     start,
		End:       end,
		Midpoint:  start.Midpoint(end),
		Bounds:    route.Bounds(),
		BearingTo: 360,
	}}
	a.seq = seq

	a.enter(AnimationOverview)
	a.renderer.DrawRoute(route)
	a.renderer.FitBounds(seq.plan.Bounds, a.cfg.FitPadding)
	a.after(seq, a.cfg.OverviewHold, a.toMidpoint)
	return nil
}

// Cancel stops the running fly-through, if any. Pending stages never run.
func (a *RouteAnimator) Cancel() {
	if a.seq == nil {
		return
	}
	a.seq.stop()
	a.seq = nil
	a.enter(AnimationIdle)
}

// Dispose is Cancel for session teardown.
func (a *RouteAnimator) Dispose() { a.Cancel() }

// State returns the current stage.
func (a *RouteAnimator) State() AnimationState { return a.state }

// Active reports whether a fly-through is running.
func (a *RouteAnimator) Active() bool { return a.seq != nil }

// Plan returns the plan of the running fly-through.
func (a *RouteAnimator) Plan() (AnimationPlan, bool) {
	if a.seq == nil {
		return AnimationPlan{}, false
	}
	return a.seq.plan, true
}

func (a *RouteAnimator) live(seq *sequence) bool {
	return a.seq == seq && !seq.cancelled
}

func (a *RouteAnimator) after(seq *sequence, d time.Duration, stage func(*sequence)) {
	seq.pending = a.sched.After(d, func() {
		if !a.live(seq) {
			return
		}
		seq.pending = nil
		stage(seq)
	})
}

func (a *RouteAnimator) enter(s AnimationState) {
	if a.state == s {
		return
	}
	a.state = s
	if a.onState != nil {
		a.onState(s)
	}
}

func (a *RouteAnimator) toMidpoint(seq *sequence) {
	// The overview fit has settled by now, so the zoom it chose is known.
	seq.plan.TargetZoom = a.renderer.CurrentZoom() * a.cfg.ZoomDamping
	a.enter(AnimationToMidpoint)
	a.renderer.EaseCamera(domain.CameraUpdate{
		Center:  ptr.Ptr(seq.plan.Midpoint),
		Zoom:    ptr.Ptr(seq.plan.TargetZoom),
		Pitch:   ptr.Ptr(a.cfg.MidpointPitch),
		Bearing: ptr.Ptr(seq.plan.BearingFrom),
	}, a.cfg.FlyDuration)
	a.after(seq, a.cfg.MidpointHold, a.rotate)
}

func (a *RouteAnimator) rotate(seq *sequence) {
	a.enter(AnimationRotating)
	seq.bearing = seq.plan.BearingFrom
	seq.rotation = a.sched.Every(a.cfg.RotationPeriod, func() {
		if !a.live(seq) {
			return
		}
		a.rotationTick(seq)
	})
}

func (a *RouteAnimator) rotationTick(seq *sequence) {
	seq.bearing += a.cfg.RotationStep
	if seq.bearing >= seq.plan.BearingTo {
		if seq.rotation != nil {
			seq.rotation.Stop()
			seq.rotation = nil
		}
		a.after(seq, a.cfg.ReturnDelay, a.flyBack)
		return
	}
	a.renderer.EaseCamera(domain.CameraUpdate{Bearing: ptr.Ptr(seq.bearing)}, a.cfg.RotationPeriod)
}

func (a *RouteAnimator) flyBack(seq *sequence) {
	a.enter(AnimationReturning)
	a.renderer.EaseCamera(domain.CameraUpdate{
		Center: ptr.Ptr(seq.plan.Start),
		Zoom:   ptr.Ptr(a.cfg.HomeZoom),
		Pitch:  ptr.Ptr(a.cfg.HomePitch),
	}, a.cfg.FlyDuration)
	a.after(seq, a.cfg.FlyDuration, func(seq *sequence) {
		a.seq = nil
		a.enter(AnimationIdle)
	})
}
