package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/pkg/geospatial"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
)

// DirectionsService computes routes over the road graph.
type DirectionsService struct {
	routing ports.RoutingRepository
	cache   ports.CacheService
	ttl     time.Duration
	// maxSpan caps the straight-line distance between endpoints; 0 disables it.
	maxSpan float64
}

// NewDirectionsService creates a new DirectionsService. cache may be nil.
func NewDirectionsService(routing ports.RoutingRepository, cache ports.CacheService, ttl time.Duration, maxSpanMeters float64) *DirectionsService {
	return &DirectionsService{routing: routing, cache: cache, ttl: ttl, maxSpan: maxSpanMeters}
}

type cachedDirections struct {
	Points [][2]float64 `json:"points"`
	Meters float64      `json:"meters"`
}

// Directions returns the shortest route from start to end.
func (s *DirectionsService) Directions(ctx context.Context, start, end domain.GeoPoint) (domain.Directions, error) {
	if !start.Valid() || !end.Valid() {
		return domain.Directions{}, domain.ErrInvalidCoordinates
	}
	if s.maxSpan > 0 {
		if d := geospatial.Haversine(start, end); d > s.maxSpan {
			return domain.Directions{}, fmt.Errorf("%w: %.0f m exceeds %.0f m", domain.ErrRouteTooLong, d, s.maxSpan)
		}
	}

	began := time.Now()
	cacheKey := fmt.Sprintf("directions:%.5f,%.5f:%.5f,%.5f", start.Lon, start.Lat, end.Lon, end.Lat)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			if d, err := decodeDirections(data); err == nil {
				metrics.CacheHits.WithLabelValues("directions").Inc()
				metrics.ObserveSince(metrics.DirectionsDuration.WithLabelValues("cache", "ok"), began)
				return d, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("directions").Inc()
	}

	route, meters, err := s.routing.ShortestPath(ctx, start, end)
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrNoRoute) {
			outcome = "no_route"
		}
		metrics.ObserveSince(metrics.DirectionsDuration.WithLabelValues("graph", outcome), began)
		return domain.Directions{}, err
	}
	if meters <= 0 {
		meters = geospatial.PathLength(route.Points())
	}
	metrics.ObserveSince(metrics.DirectionsDuration.WithLabelValues("graph", "ok"), began)
	metrics.RouteLength.Observe(meters)

	d := domain.Directions{Route: route, Meters: meters}
	if s.cache != nil {
		if data, err := encodeDirections(d); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return d, nil
}

// Fetch implements ports.RouteFetcher for in-process sessions.
func (s *DirectionsService) Fetch(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error) {
	d, err := s.Directions(ctx, start, end)
	if err != nil {
		return domain.RoutePath{}, err
	}
	return d.Route, nil
}

func encodeDirections(d domain.Directions) ([]byte, error) {
	pts := d.Route.Points()
	c := cachedDirections{Points: make([][2]float64, len(pts)), Meters: d.Meters}
	for i, p := range pts {
		c.Points[i] = p.Pair()
	}
	return json.Marshal(c)
}

func decodeDirections(data []byte) (domain.Directions, error) {
	var c cachedDirections
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Directions{}, err
	}
	pts := make([]domain.GeoPoint, len(c.Points))
	for i, p := range c.Points {
		pts[i] = domain.GeoPoint{Lon: p[0], Lat: p[1]}
	}
	route, err := domain.NewRoutePath(pts)
	if err != nil {
		return domain.Directions{}, err
	}
	return domain.Directions{Route: route, Meters: c.Meters}, nil
}
