package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/usecases"
)

// --- Mock RoutingRepository ---

type mockRoutingRepo struct {
	shortestPathFn func(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, float64, error)
	calls          int
}

func (m *mockRoutingRepo) ShortestPath(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, float64, error) {
	m.calls++
	if m.shortestPathFn != nil {
		return m.shortestPathFn(ctx, start, end)
	}
	r, err := domain.NewRoutePath([]domain.GeoPoint{start, end})
	return r, 1234, err
}

func TestDirectionsService_Directions(t *testing.T) {
	repo := &mockRoutingRepo{}
	svc := usecases.NewDirectionsService(repo, nil, time.Minute, 0)

	d, err := svc.Directions(context.Background(), mgRoad, whitefield)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Meters != 1234 || d.Route.End() != whitefield {
		t.Errorf("directions = %+v", d)
	}
}

func TestDirectionsService_InvalidCoordinates(t *testing.T) {
	repo := &mockRoutingRepo{}
	svc := usecases.NewDirectionsService(repo, nil, time.Minute, 0)

	_, err := svc.Directions(context.Background(), domain.GeoPoint{Lon: 190}, whitefield)
	if !errors.Is(err, domain.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("repository queried with invalid input")
	}
}

func TestDirectionsService_MaxSpan(t *testing.T) {
	repo := &mockRoutingRepo{}
	svc := usecases.NewDirectionsService(repo, nil, time.Minute, 5000)

	_, err := svc.Directions(context.Background(), mgRoad, whitefield)
	if !errors.Is(err, domain.ErrRouteTooLong) {
		t.Fatalf("expected ErrRouteTooLong, got %v", err)
	}
}

func TestDirectionsService_NoRoute(t *testing.T) {
	repo := &mockRoutingRepo{
		shortestPathFn: func(context.Context, domain.GeoPoint, domain.GeoPoint) (domain.RoutePath, float64, error) {
			return domain.RoutePath{}, 0, domain.ErrNoRoute
		},
	}
	svc := usecases.NewDirectionsService(repo, nil, time.Minute, 0)

	if _, err := svc.Fetch(context.Background(), mgRoad, whitefield); !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestDirectionsService_FallsBackToPathLength(t *testing.T) {
	repo := &mockRoutingRepo{
		shortestPathFn: func(_ context.Context, start, end domain.GeoPoint) (domain.RoutePath, float64, error) {
			r, err := domain.NewRoutePath([]domain.GeoPoint{start, end})
			return r, 0, err
		},
	}
	svc := usecases.NewDirectionsService(repo, nil, time.Minute, 0)

	d, err := svc.Directions(context.Background(), mgRoad, whitefield)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Meters < 15000 || d.Meters > 16000 {
		t.Errorf("meters = %.0f, want straight-line length", d.Meters)
	}
}

func TestDirectionsService_Cache(t *testing.T) {
	repo := &mockRoutingRepo{}
	cache := newMockCache()
	svc := usecases.NewDirectionsService(repo, cache, 10*time.Minute, 0)

	first, err := svc.Directions(context.Background(), mgRoad, whitefield)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Directions(context.Background(), mgRoad, whitefield)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("repository called %d times, want 1", repo.calls)
	}
	if second.Meters != first.Meters || second.Route.Len() != first.Route.Len() || second.Route.End() != first.Route.End() {
		t.Errorf("cached directions differ: %+v vs %+v", second, first)
	}
	for _, ttl := range cache.ttls {
		if ttl != 10*time.Minute {
			t.Errorf("ttl = %v", ttl)
		}
	}
}
