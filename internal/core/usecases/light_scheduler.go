package usecases

import (
	"fmt"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
)

// LightBoundaries are the hours at which each preset starts.
type LightBoundaries struct {
	Dawn  int
	Day   int
	Dusk  int
	Night int
}

// DefaultLightBoundaries: dawn 05:00, day 08:00, dusk 17:00, night 20:00.
func DefaultLightBoundaries() LightBoundaries {
	return LightBoundaries{Dawn: 5, Day: 8, Dusk: 17, Night: 20}
}

// Validate requires 0 <= dawn < day < dusk < night <= 23.
func (b LightBoundaries) Validate() error {
	if b.Dawn < 0 || b.Night > 23 || b.Dawn >= b.Day || b.Day >= b.Dusk || b.Dusk >= b.Night {
		return fmt.Errorf("light boundaries must satisfy 0 <= dawn < day < dusk < night <= 23, got %d/%d/%d/%d",
			b.Dawn, b.Day, b.Dusk, b.Night)
	}
	return nil
}

// PresetFor maps an hour of the day to its preset.
func (b LightBoundaries) PresetFor(hour int) domain.LightPreset {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour >= b.Dawn && hour < b.Day:
		return domain.LightDawn
	case hour >= b.Day && hour < b.Dusk:
		return domain.LightDay
	case hour >= b.Dusk && hour < b.Night:
		return domain.LightDusk
	default:
		return domain.LightNight
	}
}

// IsBoundary reports whether a preset starts at hour.
func (b LightBoundaries) IsBoundary(hour int) bool {
	return hour == b.Dawn || hour == b.Day || hour == b.Dusk || hour == b.Night
}

// PresetFor maps an hour to its preset using the default boundaries.
func PresetFor(hour int) domain.LightPreset {
	return DefaultLightBoundaries().PresetFor(hour)
}

// LightApplyReason says what caused a preset to be applied.
type LightApplyReason string

const (
	LightReasonInitial  LightApplyReason = "initial"
	LightReasonBoundary LightApplyReason = "boundary"
	LightReasonManual   LightApplyReason = "manual"
)

// DefaultLightTick fires on every wall-clock minute.
const DefaultLightTick = "* * * * *"

// LightScheduler keeps the map lighting in step with the time of day.
type LightScheduler struct {
	renderer   ports.MapRenderer
	now        func() time.Time
	loc        *time.Location
	boundaries LightBoundaries
	onApply    func(domain.LightPreset, LightApplyReason)

	current domain.LightPreset
	tick    ports.Timer
}

// NewLightScheduler creates a scheduler reading the clock through now in loc.
// onApply may be nil.
func NewLightScheduler(renderer ports.MapRenderer, now func() time.Time, loc *time.Location, b LightBoundaries, onApply func(domain.LightPreset, LightApplyReason)) (*LightScheduler, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &LightScheduler{renderer: renderer, now: now, loc: loc, boundaries: b, onApply: onApply}, nil
}

// PresetFor maps an hour to its preset.
func (l *LightScheduler) PresetFor(hour int) domain.LightPreset {
	return l.boundaries.PresetFor(hour)
}

// ApplyInitial applies the preset for the current hour unconditionally.
func (l *LightScheduler) ApplyInitial() domain.LightPreset {
	p := l.PresetFor(l.now().In(l.loc).Hour())
	l.apply(p, LightReasonInitial)
	return p
}

// Tick applies a preset when the clock sits on the first minute of a
// boundary hour. It reports whether it applied one.
func (l *LightScheduler) Tick() bool {
	t := l.now().In(l.loc)
	if t.Minute() != 0 || !l.boundaries.IsBoundary(t.Hour()) {
		return false
	}
	l.apply(l.PresetFor(t.Hour()), LightReasonBoundary)
	return true
}

// Select applies a manually chosen preset. The next boundary replaces it.
func (l *LightScheduler) Select(p domain.LightPreset) {
	l.apply(p, LightReasonManual)
}

// Current returns the applied preset, empty before the first apply.
func (l *LightScheduler) Current() domain.LightPreset { return l.current }

// Start registers Tick on the loop with a cron spec.
func (l *LightScheduler) Start(sched ports.CronScheduler, spec string) error {
	l.Stop()
	if spec == "" {
		spec = DefaultLightTick
	}
	t, err := sched.Cron(spec, func() { l.Tick() })
	if err != nil {
		return fmt.Errorf("schedule light tick %q: %w", spec, err)
	}
	l.tick = t
	return nil
}

// Stop removes the periodic tick.
func (l *LightScheduler) Stop() {
	if l.tick != nil {
		l.tick.Stop()
		l.tick = nil
	}
}

func (l *LightScheduler) apply(p domain.LightPreset, reason LightApplyReason) {
	l.current = p
	l.renderer.SetLightPreset(p)
	if l.onApply != nil {
		l.onApply(p, reason)
	}
}
