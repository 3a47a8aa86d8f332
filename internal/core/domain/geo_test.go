package domain_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/flyover/internal/core/domain"
)

func TestParseGeoPoint(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.GeoPoint
		wantErr bool
	}{
		{in: "77.5946,12.9716", want: domain.GeoPoint{Lon: 77.5946, Lat: 12.9716}},
		{in: " 77.5 , 12.9 ", want: domain.GeoPoint{Lon: 77.5, Lat: 12.9}},
		{in: "77.5946", wantErr: true},
		{in: "abc,12", wantErr: true},
		{in: "181,0", wantErr: true},
		{in: "0,-91", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseGeoPoint(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidCoordinates) {
					t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGeoPointRoundTripString(t *testing.T) {
	p := domain.GeoPoint{Lon: 77.5946, Lat: 12.9716}
	got, err := domain.ParseGeoPoint(p.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}
	if p.LatLonText() != "12.9716, 77.5946" {
		t.Errorf("LatLonText = %q", p.LatLonText())
	}
}

func TestNewRoutePathRejectsShortRoutes(t *testing.T) {
	_, err := domain.NewRoutePath([]domain.GeoPoint{{Lon: 1, Lat: 1}})
	if !errors.Is(err, domain.ErrShortRoute) {
		t.Fatalf("expected ErrShortRoute, got %v", err)
	}
}

func TestRoutePathBounds(t *testing.T) {
	r, err := domain.NewRoutePath([]domain.GeoPoint{
		{Lon: 77.60, Lat: 12.97},
		{Lon: 77.55, Lat: 13.01},
		{Lon: 77.64, Lat: 12.93},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.BoundingBox{MinLon: 77.55, MinLat: 12.93, MaxLon: 77.64, MaxLat: 13.01}
	if got := r.Bounds(); got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
	if r.End() != (domain.GeoPoint{Lon: 77.64, Lat: 12.93}) {
		t.Errorf("End = %+v", r.End())
	}

	// Points returns a copy.
	pts := r.Points()
	pts[0].Lon = 0
	if r.Start().Lon != 77.60 {
		t.Error("RoutePath was mutated through Points()")
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	if _, err := domain.NewBoundingBox([]float64{77.8, 12.7, 77.3, 13.1}); err == nil {
		t.Error("expected error for min > max")
	}
	if _, err := domain.NewBoundingBox([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for short slice")
	}
	b, err := domain.NewBoundingBox([]float64{77.3733, 12.7343, 77.8721, 13.1377})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Contains(domain.GeoPoint{Lon: 77.5946, Lat: 12.9716}) {
		t.Error("expected Bangalore center inside the Bangalore box")
	}
}

func TestDefaultSearchTiersAreValid(t *testing.T) {
	if err := domain.DefaultSearchTiers().Validate(); err != nil {
		t.Fatalf("default tiers invalid: %v", err)
	}
}

func TestSearchTiersValidate(t *testing.T) {
	wide := &domain.BoundingBox{MinLon: 68, MinLat: 6, MaxLon: 97, MaxLat: 35}
	narrow := &domain.BoundingBox{MinLon: 77.3, MinLat: 12.7, MaxLon: 77.8, MaxLat: 13.1}

	tests := []struct {
		name  string
		tiers domain.SearchTiers
		ok    bool
	}{
		{"empty", nil, false},
		{"only unrestricted", domain.SearchTiers{{Name: "any"}}, true},
		{"narrow then wide", domain.SearchTiers{{Name: "a", Scope: narrow}, {Name: "b", Scope: wide}, {Name: "any"}}, true},
		{"wide then narrow", domain.SearchTiers{{Name: "a", Scope: wide}, {Name: "b", Scope: narrow}, {Name: "any"}}, false},
		{"bounded last", domain.SearchTiers{{Name: "a", Scope: narrow}}, false},
		{"unrestricted first", domain.SearchTiers{{Name: "any"}, {Name: "a", Scope: narrow}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tiers.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCameraApply(t *testing.T) {
	zoom := 12.0
	c := domain.Camera{Zoom: 17, Pitch: 60}.Apply(domain.CameraUpdate{Zoom: &zoom})
	if c.Zoom != 12 || c.Pitch != 60 {
		t.Errorf("Apply = %+v", c)
	}
}

func TestParseLightPreset(t *testing.T) {
	if p, err := domain.ParseLightPreset("dusk"); err != nil || p != domain.LightDusk {
		t.Errorf("got %q, %v", p, err)
	}
	if _, err := domain.ParseLightPreset("noon"); !errors.Is(err, domain.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}
