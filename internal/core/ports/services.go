package ports

import (
	"context"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
)

// LocationLookup resolves free text to places, optionally restricted to a box.
// An error is distinct from an empty result.
type LocationLookup interface {
	Lookup(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error)
}

// RouteFetcher asks the routing backend for a path between two points.
type RouteFetcher interface {
	Fetch(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error)
}

// EventPublisher publishes session interaction events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
