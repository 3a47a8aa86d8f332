package http

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/core/usecases"
)

// Pinger is a backend that can report its readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GraphChecker reports whether the road graph is loaded.
type GraphChecker interface {
	CheckGraph(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Directions *usecases.DirectionsService
	Places     *usecases.PlaceService

	// Routes serves map sessions; it is Directions unless a remote
	// routing service is configured.
	Routes  ports.RouteFetcher
	Events  ports.EventPublisher
	Cron    *cron.Cron
	Session usecases.SessionConfig
	Logger  *slog.Logger

	DB    Pinger
	Graph GraphChecker
	Cache Pinger
	NATS  interface{ Connected() bool }

	RequestTimeoutSeconds int
	RateLimit             int
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Dependencies) routes() ports.RouteFetcher {
	if d.Routes != nil {
		return d.Routes
	}
	if d.Directions != nil {
		return d.Directions
	}
	return nil
}
