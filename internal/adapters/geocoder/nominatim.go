package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/pkg/geospatial"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
	"github.com/samirrijal/flyover/internal/pkg/telemetry"
)

// Options configures a Nominatim client.
type Options struct {
	BaseURL      string
	UserAgent    string
	CountryCodes []string
	Limit        int
	// Proximity biases unscoped searches toward a point without excluding
	// results elsewhere.
	Proximity       *domain.GeoPoint
	ProximityRadius float64
	Timeout         time.Duration
}

// Nominatim implements ports.PlaceProvider against a Nominatim-compatible
// /search endpoint.
type Nominatim struct {
	opts   Options
	client *http.Client
}

// New creates a Nominatim client. A zero Limit means 5 results.
func New(opts Options) *Nominatim {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ProximityRadius <= 0 {
		opts.ProximityRadius = 50000
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Nominatim{opts: opts, client: &http.Client{Timeout: opts.Timeout}}
}

type searchResult struct {
	PlaceID     int64   `json:"place_id"`
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Category    string  `json:"category"`
	Class       string  `json:"class"`
	Importance  float64 `json:"importance"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Search queries the geocoder. A non-nil scope restricts results to that box.
func (n *Nominatim) Search(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer("geocoder").Start(ctx, telemetry.SpanGeocoderSearch)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSearchQuery, query))

	began := time.Now()
	places, err := n.search(ctx, query, scope)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.ObserveSince(metrics.GeocoderDuration.WithLabelValues(outcome), began)
	span.SetAttributes(attribute.Int(telemetry.AttrSearchResults, len(places)))
	return places, err
}

func (n *Nominatim) search(ctx context.Context, query string, scope *domain.BoundingBox) ([]domain.Place, error) {
	params := n.params(query, scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.opts.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.opts.UserAgent != "" {
		req.Header.Set("User-Agent", n.opts.UserAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		p, ok := toPlace(r)
		if !ok {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

func (n *Nominatim) params(query string, scope *domain.BoundingBox) url.Values {
	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(n.opts.Limit)},
	}
	if len(n.opts.CountryCodes) > 0 {
		params.Set("countrycodes", strings.Join(n.opts.CountryCodes, ","))
	}
	switch {
	case scope != nil:
		params.Set("viewbox", viewbox(*scope))
		params.Set("bounded", "1")
	case n.opts.Proximity != nil:
		params.Set("viewbox", viewbox(geospatial.Around(*n.opts.Proximity, n.opts.ProximityRadius)))
	}
	return params
}

// viewbox formats a box as Nominatim's x1,y1,x2,y2.
func viewbox(b domain.BoundingBox) string {
	return strings.Join([]string{
		strconv.FormatFloat(b.MinLon, 'f', -1, 64),
		strconv.FormatFloat(b.MinLat, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLon, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLat, 'f', -1, 64),
	}, ",")
}

func toPlace(r searchResult) (domain.Place, bool) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return domain.Place{}, false
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return domain.Place{}, false
	}
	loc := domain.GeoPoint{Lon: lon, Lat: lat}
	if !loc.Valid() {
		return domain.Place{}, false
	}
	category := r.Category
	if category == "" {
		category = r.Class
	}
	return domain.Place{
		ID:          strconv.FormatInt(r.PlaceID, 10),
		Label:       r.DisplayName,
		Location:    loc,
		Category:    category,
		CountryCode: strings.ToLower(r.Address.CountryCode),
		Importance:  r.Importance,
	}, true
}
