package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
	"github.com/samirrijal/flyover/internal/pkg/telemetry"
)

// Client implements ports.RouteFetcher against a remote /directions endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a directions client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Response is the /directions wire format.
type Response struct {
	Route          *geojson.Geometry `json:"route"`
	DistanceMeters float64           `json:"distance_meters,omitempty"`
}

// Fetch requests the route between start and end. Non-2xx responses and
// bodies without a LineString are errors.
func (c *Client) Fetch(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error) {
	ctx, span := telemetry.Tracer("directions").Start(ctx, telemetry.SpanDirectionsFetch)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrDirectionsSource, "remote"))

	began := time.Now()
	route, err := c.fetch(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveSince(metrics.DirectionsDuration.WithLabelValues("remote", "error"), began)
		return domain.RoutePath{}, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrRoutePoints, route.Len()))
	metrics.ObserveSince(metrics.DirectionsDuration.WithLabelValues("remote", "ok"), began)
	return route, nil
}

func (c *Client) fetch(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, error) {
	params := url.Values{
		"start": {start.String()},
		"end":   {end.String()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/directions?"+params.Encode(), nil)
	if err != nil {
		return domain.RoutePath{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.RoutePath{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.RoutePath{}, fmt.Errorf("directions returned status %d", resp.StatusCode)
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RoutePath{}, fmt.Errorf("decode directions: %w", err)
	}
	if body.Route == nil || body.Route.Coordinates == nil {
		return domain.RoutePath{}, fmt.Errorf("decode directions: missing route")
	}
	ls, ok := body.Route.Coordinates.(orb.LineString)
	if !ok {
		return domain.RoutePath{}, fmt.Errorf("decode directions: route is %s, want LineString", body.Route.Coordinates.GeoJSONType())
	}
	return domain.RoutePathFromLineString(ls)
}
