package geospatial

import (
	"math"

	"github.com/samirrijal/flyover/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength sums the leg distances of a polyline in meters.
func PathLength(points []domain.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

// Around returns the box extending radiusMeters from p on every side.
func Around(p domain.GeoPoint, radiusMeters float64) domain.BoundingBox {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(p.Lat)))

	return domain.BoundingBox{
		MinLon: p.Lon - lonDelta,
		MinLat: p.Lat - latDelta,
		MaxLon: p.Lon + lonDelta,
		MaxLat: p.Lat + latDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
