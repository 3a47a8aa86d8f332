// Package eventloop runs a map session's state on a single goroutine.
//
// Every callback (timers, cron ticks, completions of blocking work and
// inbound client messages) is posted to the loop as a closure, so session
// state never needs a lock.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samirrijal/flyover/internal/core/ports"
)

// ErrNoCron is returned by Cron when the loop was built without a cron runner.
var ErrNoCron = errors.New("eventloop: no cron runner configured")

// Loop is a single-goroutine executor.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	cron   *cron.Cron
	logger *slog.Logger
}

var _ ports.EventLoop = (*Loop)(nil)

// New creates a loop with a queue of the given size. c may be nil when cron
// schedules are not needed.
func New(queueSize int, c *cron.Cron, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		cron:   c,
		logger: logger,
	}
}

// Run executes posted callbacks until Close is called. Callbacks still queued
// at that point are dropped.
func (l *Loop) Run() {
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.queue:
			select {
			case <-l.done:
				return
			default:
			}
			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn. It returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.queue <- fn:
		return true
	}
}

// Close stops the loop. It is safe to call more than once and from the loop itself.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

type timer struct {
	stopped atomic.Bool
	stop    func()
}

func (t *timer) Stop() {
	if t.stopped.CompareAndSwap(false, true) && t.stop != nil {
		t.stop()
	}
}

// guarded posts fn unless t was stopped before the loop got to it.
func (l *Loop) guarded(t *timer, fn func()) func() {
	return func() {
		if t.stopped.Load() {
			return
		}
		fn()
	}
}

// After runs fn on the loop once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) ports.Timer {
	t := &timer{}
	run := l.guarded(t, func() {
		t.stopped.Store(true)
		fn()
	})
	tm := time.AfterFunc(d, func() { l.Post(run) })
	t.stop = func() { tm.Stop() }
	return t
}

// Every runs fn on the loop every d until stopped.
func (l *Loop) Every(d time.Duration, fn func()) ports.Timer {
	t := &timer{}
	quit := make(chan struct{})
	t.stop = func() { close(quit) }
	run := l.guarded(t, fn)

	go func() {
		tk := time.NewTicker(d)
		defer tk.Stop()
		for {
			select {
			case <-quit:
				return
			case <-l.done:
				return
			case <-tk.C:
				l.Post(run)
			}
		}
	}()
	return t
}

// Cron runs fn on the loop on a standard five-field cron schedule.
func (l *Loop) Cron(spec string, fn func()) (ports.Timer, error) {
	if l.cron == nil {
		return nil, ErrNoCron
	}
	t := &timer{}
	run := l.guarded(t, fn)
	id, err := l.cron.AddFunc(spec, func() { l.Post(run) })
	if err != nil {
		return nil, err
	}
	t.stop = func() { l.cron.Remove(id) }
	return t, nil
}

// Go runs work on its own goroutine and posts the continuation it returns.
func (l *Loop) Go(ctx context.Context, work func(ctx context.Context) func()) {
	go func() {
		next := work(ctx)
		if next != nil {
			l.Post(next)
		}
	}()
}
