package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/usecases"
)

// --- Mock PlaceProvider ---

type mockPlaceProvider struct {
	searchFn func(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error)
	calls    int
}

func (m *mockPlaceProvider) Search(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query, scope)
	}
	return nil, nil
}

func TestPlaceService_Lookup(t *testing.T) {
	provider := &mockPlaceProvider{
		searchFn: func(_ context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
			if query != "Lalbagh" {
				t.Errorf("query = %q", query)
			}
			if scope == nil {
				t.Error("scope dropped")
			}
			return []domain.Place{{Label: "Lalbagh Botanical Garden", Location: domain.GeoPoint{Lon: 77.5848, Lat: 12.9507}}}, nil
		},
	}
	svc := usecases.NewPlaceService(provider, nil, time.Hour)

	places, err := svc.Lookup(context.Background(), " Lalbagh ", domain.DefaultSearchTiers()[0].Scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].Label != "Lalbagh Botanical Garden" {
		t.Errorf("places = %+v", places)
	}
}

func TestPlaceService_EmptyQuery(t *testing.T) {
	provider := &mockPlaceProvider{}
	svc := usecases.NewPlaceService(provider, nil, time.Hour)

	if _, err := svc.Lookup(context.Background(), "  ", nil); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("provider called for an empty query")
	}
}

func TestPlaceService_ErrorIsNotEmpty(t *testing.T) {
	boom := errors.New("nominatim 429")
	provider := &mockPlaceProvider{
		searchFn: func(context.Context, string, *domain.BoundingBox) ([]domain.Place, error) { return nil, boom },
	}
	svc := usecases.NewPlaceService(provider, newMockCache(), time.Hour)

	if _, err := svc.Lookup(context.Background(), "Hebbal", nil); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestPlaceService_CachesPerScope(t *testing.T) {
	provider := &mockPlaceProvider{
		searchFn: func(context.Context, string, *domain.BoundingBox) ([]domain.Place, error) {
			return []domain.Place{{Label: "x", Location: domain.GeoPoint{Lon: 77, Lat: 12}}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewPlaceService(provider, cache, time.Hour)
	tiers := domain.DefaultSearchTiers()
	ctx := context.Background()

	_, _ = svc.Lookup(ctx, "Indiranagar", tiers[0].Scope)
	_, _ = svc.Lookup(ctx, "indiranagar", tiers[0].Scope)
	if provider.calls != 1 {
		t.Errorf("same query and scope hit the provider %d times", provider.calls)
	}

	_, _ = svc.Lookup(ctx, "Indiranagar", tiers[1].Scope)
	_, _ = svc.Lookup(ctx, "Indiranagar", nil)
	if provider.calls != 3 {
		t.Errorf("different scopes shared a cache entry: %d calls", provider.calls)
	}
}
