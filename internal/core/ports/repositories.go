package ports

import (
	"context"

	"github.com/samirrijal/flyover/internal/core/domain"
)

// RoutingRepository computes shortest paths over the road graph.
type RoutingRepository interface {
	// ShortestPath returns domain.ErrNoRoute when the points are not connected.
	ShortestPath(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, float64, error)
}

// PlaceProvider is a geocoding backend such as Nominatim.
type PlaceProvider interface {
	Search(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error)
}
