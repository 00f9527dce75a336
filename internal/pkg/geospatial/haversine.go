package geospatial

import (
	"math"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used for every distance.
const EarthRadiusKm = 6371.0

// kmPerDegree is the arc length of one degree of latitude on that sphere.
const kmPerDegree = EarthRadiusKm * math.Pi / 180

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// HaversineKm calculates the great-circle distance in kilometers between two points.
func HaversineKm(a, b domain.GeoPoint) float64 {
	dLat := DegreesToRadians(b.Lat - a.Lat)
	dLng := DegreesToRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(DegreesToRadians(a.Lat))*math.Cos(DegreesToRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// BoundingBox returns a box that contains every point within radiusKm of p.
func BoundingBox(p domain.GeoPoint, radiusKm float64) domain.Bounds {
	latDelta := radiusKm / kmPerDegree
	lngDelta := radiusKm / (kmPerDegree * math.Cos(DegreesToRadians(p.Lat)))

	return domain.Bounds{
		MinLat: p.Lat - latDelta,
		MinLng: p.Lng - lngDelta,
		MaxLat: p.Lat + latDelta,
		MaxLng: p.Lng + lngDelta,
	}
}
