package geospatial

import (
	"github.com/golang/geo/s2"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// QuoteCellLevel groups quotes into S2 cells roughly one kilometer across.
const QuoteCellLevel = 13

// CellToken returns the S2 cell token containing p at the given level.
func CellToken(p domain.GeoPoint, level int) string {
	id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
	return id.Parent(level).ToToken()
}
