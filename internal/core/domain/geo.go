package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point lies inside the WGS 84 coordinate ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// Pair returns the point as a [lon, lat] pair, the order used on the wire.
func (p GeoPoint) Pair() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}

// Midpoint returns the arithmetic mean of p and q.
func (p GeoPoint) Midpoint(q GeoPoint) GeoPoint {
	return GeoPoint{Lon: (p.Lon + q.Lon) / 2, Lat: (p.Lat + q.Lat) / 2}
}

// String formats the point as "lon,lat", the directions query format.
func (p GeoPoint) String() string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// LatLonText formats the point the way the start input shows a device location.
func (p GeoPoint) LatLonText() string {
	return fmt.Sprintf("%s, %s", strconv.FormatFloat(p.Lat, 'f', -1, 64), strconv.FormatFloat(p.Lon, 'f', -1, 64))
}

// ParseGeoPoint parses a "lon,lat" pair.
func ParseGeoPoint(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: expected lon,lat, got %q", ErrInvalidCoordinates, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, parts[1])
	}
	p := GeoPoint{Lon: lon, Lat: lat}
	if !p.Valid() {
		return GeoPoint{}, fmt.Errorf("%w: %q out of range", ErrInvalidCoordinates, s)
	}
	return p, nil
}

// BoundingBox is an axis-aligned geographic rectangle.
type BoundingBox struct {
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
}

// NewBoundingBox builds a box from a [minLon, minLat, maxLon, maxLat] slice.
func NewBoundingBox(v []float64) (BoundingBox, error) {
	if len(v) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box needs 4 values, got %d", len(v))
	}
	b := BoundingBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	return b, b.Validate()
}

// Validate checks min <= max on both axes and that both corners are valid points.
func (b BoundingBox) Validate() error {
	if !(GeoPoint{Lon: b.MinLon, Lat: b.MinLat}).Valid() || !(GeoPoint{Lon: b.MaxLon, Lat: b.MaxLat}).Valid() {
		return fmt.Errorf("%w: bounding box corner out of range", ErrInvalidCoordinates)
	}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return fmt.Errorf("%w: bounding box min exceeds max", ErrInvalidCoordinates)
	}
	return nil
}

// Area returns the box area in square degrees. Used only to rank tiers.
func (b BoundingBox) Area() float64 {
	return (b.MaxLon - b.MinLon) * (b.MaxLat - b.MinLat)
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Slice returns the box as [minLon, minLat, maxLon, maxLat].
func (b BoundingBox) Slice() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

// Bound converts the box to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// BoundingBoxFromBound converts an orb.Bound to a BoundingBox.
func BoundingBoxFromBound(b orb.Bound) BoundingBox {
	return BoundingBox{MinLon: b.Min.Lon(), MinLat: b.Min.Lat(), MaxLon: b.Max.Lon(), MaxLat: b.Max.Lat()}
}

// RoutePath is an ordered polyline returned by the routing backend.
// It always holds at least two points and is never modified after creation.
type RoutePath struct {
	points []GeoPoint
}

// NewRoutePath copies points into a RoutePath.
func NewRoutePath(points []GeoPoint) (RoutePath, error) {
	if len(points) < 2 {
		return RoutePath{}, fmt.Errorf("%w: got %d points", ErrShortRoute, len(points))
	}
	for i, p := range points {
		if !p.Valid() {
			return RoutePath{}, fmt.Errorf("%w: route point %d", ErrInvalidCoordinates, i)
		}
	}
	cp := make([]GeoPoint, len(points))
	copy(cp, points)
	return RoutePath{points: cp}, nil
}

// RoutePathFromLineString builds a RoutePath from an orb.LineString.
func RoutePathFromLineString(ls orb.LineString) (RoutePath, error) {
	points := make([]GeoPoint, len(ls))
	for i, p := range ls {
		points[i] = GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
	}
	return NewRoutePath(points)
}

// Len returns the number of points; zero for the empty value.
func (r RoutePath) Len() int { return len(r.points) }

// Empty reports whether r is the zero RoutePath.
func (r RoutePath) Empty() bool { return len(r.points) == 0 }

// Points returns a copy of the route points.
func (r RoutePath) Points() []GeoPoint {
	cp := make([]GeoPoint, len(r.points))
	copy(cp, r.points)
	return cp
}

// Start returns the first point.
func (r RoutePath) Start() GeoPoint { return r.points[0] }

// End returns the last point.
func (r RoutePath) End() GeoPoint { return r.points[len(r.points)-1] }

// LineString converts the route to an orb.LineString.
func (r RoutePath) LineString() orb.LineString {
	ls := make(orb.LineString, len(r.points))
	for i, p := range r.points {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	return ls
}

// Bounds returns the smallest box containing every route point.
func (r RoutePath) Bounds() BoundingBox {
	return BoundingBoxFromBound(r.LineString().Bound())
}
