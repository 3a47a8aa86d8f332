package directions_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/flyover/internal/adapters/directions"
	"github.com/samirrijal/flyover/internal/core/domain"
)

var (
	mgRoad     = domain.GeoPoint{Lon: 77.6070, Lat: 12.9756}
	whitefield = domain.GeoPoint{Lon: 77.7500, Lat: 12.9698}
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("start"); got != mgRoad.String() {
			t.Errorf("start = %q", got)
		}
		if got := r.URL.Query().Get("end"); got != whitefield.String() {
			t.Errorf("end = %q", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"route": {"type": "LineString", "coordinates": [[77.607, 12.9756], [77.68, 12.97], [77.75, 12.9698]]}}`)

	route, err := directions.New(srv.URL, time.Second).Fetch(context.Background(), mgRoad, whitefield)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.Len() != 3 {
		t.Errorf("len = %d, want 3", route.Len())
	}
	if route.End() != (domain.GeoPoint{Lon: 77.75, Lat: 12.9698}) {
		t.Errorf("end = %v", route.End())
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error": "boom"}`},
		{"not found", http.StatusNotFound, `{"error": "no route"}`},
		{"malformed json", http.StatusOK, `{"route": `},
		{"missing route", http.StatusOK, `{}`},
		{"wrong geometry", http.StatusOK, `{"route": {"type": "Point", "coordinates": [77.6, 12.9]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			if _, err := directions.New(srv.URL, time.Second).Fetch(context.Background(), mgRoad, whitefield); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_SinglePointRoute(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"route": {"type": "LineString", "coordinates": [[77.607, 12.9756]]}}`)

	_, err := directions.New(srv.URL, time.Second).Fetch(context.Background(), mgRoad, whitefield)
	if !errors.Is(err, domain.ErrShortRoute) {
		t.Fatalf("expected ErrShortRoute, got %v", err)
	}
}
