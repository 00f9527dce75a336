package usecases

import (
	"fmt"

	"github.com/samirrijal/sgrent/internal/core/catalog"
	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

// FindNearest scans stations in order and returns the closest one to p.
// On an exact tie the earlier station wins.
func FindNearest(p domain.GeoPoint, stations []domain.Station) (domain.StationDistance, error) {
	if len(stations) == 0 {
		return domain.StationDistance{}, domain.ErrNoStationsAvailable
	}

	best := domain.StationDistance{Station: stations[0], DistanceKm: geospatial.HaversineKm(p, stations[0].Position)}
	for _, s := range stations[1:] {
		if d := geospatial.HaversineKm(p, s.Position); d < best.DistanceKm {
			best = domain.StationDistance{Station: s, DistanceKm: d}
		}
	}
	return best, nil
}

// StationService answers catalog queries.
type StationService struct {
	catalog *catalog.Catalog
}

// NewStationService creates a new StationService.
func NewStationService(c *catalog.Catalog) *StationService {
	return &StationService{catalog: c}
}

// Nearest resolves the closest station to p.
func (s *StationService) Nearest(p domain.GeoPoint) (domain.StationDistance, error) {
	if !p.IsFinite() {
		return domain.StationDistance{}, fmt.Errorf("%w: point: coordinates must be finite numbers", domain.ErrInvalidInput)
	}
	sd, err := FindNearest(p, s.catalog.Stations())
	if err != nil {
		return sd, err
	}
	metrics.NearestStationDistance.Observe(sd.DistanceKm)
	return sd, nil
}

// Nearby returns stations within radiusKm of p, nearest first.
func (s *StationService) Nearby(p domain.GeoPoint, radiusKm float64, limit int) ([]domain.StationDistance, error) {
	if !p.IsFinite() {
		return nil, fmt.Errorf("%w: point: coordinates must be finite numbers", domain.ErrInvalidInput)
	}
	if radiusKm <= 0 || radiusKm > 50 {
		return nil, fmt.Errorf("%w: radius_km: must be in (0, 50]", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.catalog.Within(p, radiusKm, limit), nil
}

// List returns the catalog in order, optionally restricted to one category.
func (s *StationService) List(category domain.Category) []domain.Station {
	all := s.catalog.Stations()
	if category == "" {
		return all
	}
	out := all[:0]
	for _, st := range all {
		if st.Category == category {
			out = append(out, st)
		}
	}
	return out
}

// Lookup finds a station by name.
func (s *StationService) Lookup(name string) (domain.Station, error) {
	return s.catalog.Lookup(name)
}

// Count returns the catalog size.
func (s *StationService) Count() int {
	return s.catalog.Len()
}
