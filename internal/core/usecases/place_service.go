package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
)

// PlaceService resolves search text to places through a geocoder, caching
// results per query and scope.
type PlaceService struct {
	provider ports.PlaceProvider
	cache    ports.CacheService
	ttl      time.Duration
}

// NewPlaceService creates a new PlaceService. cache may be nil.
func NewPlaceService(provider ports.PlaceProvider, cache ports.CacheService, ttl time.Duration) *PlaceService {
	return &PlaceService{provider: provider, cache: cache, ttl: ttl}
}

// Lookup implements ports.LocationLookup.
func (s *PlaceService) Lookup(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	cacheKey := placesKey(query, scope)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				metrics.CacheHits.WithLabelValues("places").Inc()
				return places, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("places").Inc()
	}

	places, err := s.provider.Search(ctx, query, scope)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return places, nil
}

func placesKey(query string, scope *domain.BoundingBox) string {
	area := "any"
	if scope != nil {
		area = fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", scope.MinLon, scope.MinLat, scope.MaxLon, scope.MaxLat)
	}
	return "places:" + area + ":" + strings.ToLower(query)
}
