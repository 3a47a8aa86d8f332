package eventloop

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samirrijal/flyover/internal/core/ports"
)

// Manual is a deterministic loop driven by virtual time. Callbacks run
// synchronously inside Advance and RunPending, ordered by due time and then
// by registration order.
type Manual struct {
	now     time.Time
	seq     int
	entries []*manualEntry
	jobs    []manualJob
}

type manualEntry struct {
	due      time.Time
	seq      int
	period   time.Duration
	schedule cron.Schedule
	fn       func()
	stopped  bool
}

func (e *manualEntry) Stop() { e.stopped = true }

type manualJob struct {
	ctx  context.Context
	work func(ctx context.Context) func()
}

var _ ports.EventLoop = (*Manual)(nil)

// NewManual returns a Manual loop whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) add(e *manualEntry) *manualEntry {
	m.seq++
	e.seq = m.seq
	m.entries = append(m.entries, e)
	return e
}

// After schedules fn at now+d.
func (m *Manual) After(d time.Duration, fn func()) ports.Timer {
	return m.add(&manualEntry{due: m.now.Add(d), fn: fn})
}

// Every schedules fn at now+d and every d after that.
func (m *Manual) Every(d time.Duration, fn func()) ports.Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(&manualEntry{due: m.now.Add(d), period: d, fn: fn})
}

// Cron schedules fn on a standard five-field cron schedule in virtual time.
func (m *Manual) Cron(spec string, fn func()) (ports.Timer, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	return m.add(&manualEntry{due: sched.Next(m.now), schedule: sched, fn: fn}), nil
}

// Go queues work until RunPending.
func (m *Manual) Go(ctx context.Context, work func(ctx context.Context) func()) {
	m.jobs = append(m.jobs, manualJob{ctx: ctx, work: work})
}

// PendingJobs returns the number of queued Go calls.
func (m *Manual) PendingJobs() int { return len(m.jobs) }

// RunPending runs queued work and continuations in FIFO order, including work
// queued while running. It returns the number of jobs run.
func (m *Manual) RunPending() int {
	n := 0
	for len(m.jobs) > 0 {
		job := m.jobs[0]
		m.jobs = m.jobs[1:]
		if next := job.work(job.ctx); next != nil {
			next()
		}
		n++
	}
	return n
}

// Timers returns the number of live timers.
func (m *Manual) Timers() int {
	n := 0
	for _, e := range m.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		e := m.next(target)
		if e == nil {
			break
		}
		m.now = e.due
		switch {
		case e.period > 0:
			e.due = e.due.Add(e.period)
		case e.schedule != nil:
			e.due = e.schedule.Next(e.due)
		default:
			e.stopped = true
		}
		e.fn()
	}
	m.now = target
	m.compact()
}

// AdvanceTo moves the clock to t.
func (m *Manual) AdvanceTo(t time.Time) {
	if t.After(m.now) {
		m.Advance(t.Sub(m.now))
	}
}

func (m *Manual) next(target time.Time) *manualEntry {
	var best *manualEntry
	for _, e := range m.entries {
		if e.stopped || e.due.After(target) {
			continue
		}
		if best == nil || e.due.Before(best.due) || (e.due.Equal(best.due) && e.seq < best.seq) {
			best = e
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.stopped {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(m.entries); i++ {
		m.entries[i] = nil
	}
	m.entries = live
}
