package geospatial

import (
	"math"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// Local plane origin and scale. The numbers mimic SVY21 (EPSG:3414) but the
// transform below is an equirectangular approximation, not the real
// Transverse Mercator. Expect errors of tens of meters. The reverse geocoder
// searches a 40 m buffer around the result, which absorbs most of it.
const (
	originLat     = 1.366666
	originLng     = 103.833333
	falseNorthing = 38744.572
	falseEasting  = 28001.642

	metersPerDegreeLng = 111320.0 // at the equator, scaled by cos(lat)
	metersPerDegreeLat = 110574.0
)

// ProjectToLocalPlane maps a WGS84 point onto the approximate local plane
// expected by the reverse-geocoding service.
func ProjectToLocalPlane(p domain.GeoPoint) domain.ProjectedPoint {
	x := (p.Lng-originLng)*metersPerDegreeLng*math.Cos(p.Lat*math.Pi/180) + falseEasting
	y := (p.Lat-originLat)*metersPerDegreeLat + falseNorthing
	return domain.ProjectedPoint{Easting: x, Northing: y}
}
