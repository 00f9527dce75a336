package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsFinite reports whether both coordinates are real numbers.
func (p GeoPoint) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// InServiceRegion reports whether the point lies where nearest-station and
// address results are meaningful.
func (p GeoPoint) InServiceRegion() bool {
	return ServiceRegion.Contains(p)
}

// ProjectedPoint is a position on the local Singapore plane, in meters.
type ProjectedPoint struct {
	Easting  float64 `json:"x"`
	Northing float64 `json:"y"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

var (
	// ServiceRegion is the plausible range for quotes.
	ServiceRegion = Bounds{MinLat: 1.1, MinLng: 103.5, MaxLat: 1.5, MaxLng: 104.1}

	// MapBounds is the pannable extent of the map widget.
	MapBounds = Bounds{MinLat: 1.144, MinLng: 103.535, MaxLat: 1.494, MaxLng: 104.502}

	// DefaultView is where the map opens (Raffles Place).
	DefaultView = GeoPoint{Lat: 1.2868108, Lng: 103.8545349}
)

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 16
