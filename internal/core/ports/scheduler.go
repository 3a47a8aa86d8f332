package ports

import (
	"context"
	"time"
)

// Timer is a handle to a pending or periodic callback. Stop is idempotent and,
// once it returns, the callback never runs again.
type Timer interface {
	Stop()
}

// Scheduler runs callbacks on the session loop after a delay or periodically.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// CronScheduler runs fn on the session loop on a cron schedule.
type CronScheduler interface {
	Cron(spec string, fn func()) (Timer, error)
}

// Dispatcher runs blocking work off the loop. The continuation returned by
// work, if any, runs back on the loop.
type Dispatcher interface {
	Go(ctx context.Context, work func(ctx context.Context) func())
}

// EventLoop is everything a map session needs from its loop.
type EventLoop interface {
	Scheduler
	CronScheduler
	Dispatcher
	Now() time.Time
}
