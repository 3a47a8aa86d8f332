package geocoder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samirrijal/flyover/internal/adapters/geocoder"
	"github.com/samirrijal/flyover/internal/core/domain"
)

const lalbagh = `[
  {"place_id": 101, "display_name": "Lalbagh Botanical Garden, Bengaluru", "lat": "12.9507", "lon": "77.5848",
   "category": "leisure", "importance": 0.61, "address": {"country_code": "IN"}},
  {"place_id": 102, "display_name": "broken", "lat": "north", "lon": "77.1"}
]`

func TestNominatim_ScopedSearch(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "flyover-test" {
			t.Errorf("user agent = %q", ua)
		}
		q := r.URL.Query()
		got = map[string]string{
			"q":            q.Get("q"),
			"viewbox":      q.Get("viewbox"),
			"bounded":      q.Get("bounded"),
			"countrycodes": q.Get("countrycodes"),
			"limit":        q.Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(lalbagh))
	}))
	defer srv.Close()

	n := geocoder.New(geocoder.Options{
		BaseURL:      srv.URL + "/",
		UserAgent:    "flyover-test",
		CountryCodes: []string{"in"},
		Limit:        3,
	})
	places, err := n.Search(context.Background(), "Lalbagh", domain.DefaultSearchTiers()[0].Scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"q":            "Lalbagh",
		"viewbox":      "77.3733,12.7343,77.8721,13.1377",
		"bounded":      "1",
		"countrycodes": "in",
		"limit":        "3",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}

	if len(places) != 1 {
		t.Fatalf("expected the unparsable result to be skipped, got %d places", len(places))
	}
	p := places[0]
	if p.ID != "101" || p.Category != "leisure" || p.CountryCode != "in" {
		t.Errorf("place = %+v", p)
	}
	if p.Location != (domain.GeoPoint{Lon: 77.5848, Lat: 12.9507}) {
		t.Errorf("location = %v", p.Location)
	}
}

func TestNominatim_UnscopedUsesProximity(t *testing.T) {
	var viewbox, bounded string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewbox = r.URL.Query().Get("viewbox")
		bounded = r.URL.Query().Get("bounded")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := geocoder.New(geocoder.Options{
		BaseURL:   srv.URL,
		Proximity: &domain.GeoPoint{Lon: 77.5946, Lat: 12.9716},
	})
	places, err := n.Search(context.Background(), "Taj Mahal", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("places = %+v", places)
	}
	if viewbox == "" {
		t.Error("proximity bias not sent")
	}
	if bounded != "" {
		t.Errorf("unscoped search must not be bounded, got %q", bounded)
	}
}

func TestNominatim_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := geocoder.New(geocoder.Options{BaseURL: srv.URL})
	if _, err := n.Search(context.Background(), "Hebbal", nil); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestNominatim_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	defer srv.Close()

	n := geocoder.New(geocoder.Options{BaseURL: srv.URL})
	if _, err := n.Search(context.Background(), "Hebbal", nil); err == nil {
		t.Fatal("expected decode error")
	}
}
