// Package catalog holds the immutable rail station reference table.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
)

//go:embed stations.yaml
var embedded []byte

type file struct {
	Stations []row `yaml:"stations"`
}

type row struct {
	Name string  `yaml:"name"`
	Type string  `yaml:"type"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// Catalog is a read-only, ordered set of stations. It is safe for concurrent use.
type Catalog struct {
	stations []domain.Station
	byName   map[string]int
	index    *rtreego.Rtree
}

// entry is a station as stored in the R-tree.
type entry struct {
	pos  int
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// Load parses the station table compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// MustLoad is Load for process start-up, where a broken table is fatal.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from a YAML station table.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode station table: %w", err)
	}

	stations := make([]domain.Station, 0, len(f.Stations))
	var errs []string
	for i, r := range f.Stations {
		cat, err := domain.ParseCategory(r.Type)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d (%s): %v", i, r.Name, err))
			continue
		}
		stations = append(stations, domain.Station{
			Name:     strings.TrimSpace(r.Name),
			Category: cat,
			Position: domain.GeoPoint{Lat: r.Lat, Lng: r.Lng},
		})
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return New(stations)
}

// Encode renders stations in the format Parse reads.
func Encode(stations []domain.Station) ([]byte, error) {
	f := file{Stations: make([]row, len(stations))}
	for i, s := range stations {
		f.Stations[i] = row{Name: s.Name, Type: s.Category.Label(), Lat: s.Position.Lat, Lng: s.Position.Lng}
	}
	return yaml.Marshal(f)
}

// New validates stations and indexes them. The slice order becomes the
// catalog order. An empty slice yields an empty, valid catalog.
func New(stations []domain.Station) (*Catalog, error) {
	var errs []string
	byName := make(map[string]int, len(stations))

	for i, s := range stations {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Sprintf("station %d: name is required", i))
		case s.Category != domain.CategoryRailHeavy && s.Category != domain.CategoryRailLight:
			errs = append(errs, fmt.Sprintf("%s: unknown category %q", s.Name, s.Category))
		case !s.Position.IsFinite():
			errs = append(errs, fmt.Sprintf("%s: coordinates must be finite", s.Name))
		case !domain.MapBounds.Contains(s.Position):
			errs = append(errs, fmt.Sprintf("%s: position %.6f,%.6f is outside the map", s.Name, s.Position.Lat, s.Position.Lng))
		}

		key := strings.ToLower(s.Name)
		if prev, dup := byName[key]; dup && s.Name != "" {
			errs = append(errs, fmt.Sprintf("%s: duplicate of station %d", s.Name, prev))
			continue
		}
		byName[key] = i
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	c := &Catalog{
		stations: append([]domain.Station(nil), stations...),
		byName:   byName,
		index:    rtreego.NewTree(2, 8, 32),
	}
	for i, s := range c.stations {
		c.index.Insert(&entry{
			pos:  i,
			rect: rtreego.Point{s.Position.Lat, s.Position.Lng}.ToRect(1e-9),
		})
	}
	return c, nil
}

// Stations returns a copy of the stations in catalog order.
func (c *Catalog) Stations() []domain.Station {
	return append([]domain.Station(nil), c.stations...)
}

// Len returns the number of stations.
func (c *Catalog) Len() int {
	return len(c.stations)
}

// Lookup finds a station by name, ignoring case.
func (c *Catalog) Lookup(name string) (domain.Station, error) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Station{}, fmt.Errorf("%w: %s", domain.ErrStationNotFound, name)
	}
	return c.stations[i], nil
}

// Within returns the stations no further than radiusKm from p, nearest
// first. Equal distances keep catalog order. limit <= 0 means no limit.
func (c *Catalog) Within(p domain.GeoPoint, radiusKm float64, limit int) []domain.StationDistance {
	if radiusKm <= 0 || !p.IsFinite() || len(c.stations) == 0 {
		return nil
	}

	box := geospatial.BoundingBox(p, radiusKm)
	query, err := rtreego.NewRectFromPoints(
		rtreego.Point{box.MinLat, box.MinLng},
		rtreego.Point{box.MaxLat, box.MaxLng},
	)
	if err != nil {
		return nil
	}

	type hit struct {
		pos  int
		dist float64
	}
	var hits []hit
	for _, sp := range c.index.SearchIntersect(query) {
		e := sp.(*entry)
		d := geospatial.HaversineKm(p, c.stations[e.pos].Position)
		if d <= radiusKm {
			hits = append(hits, hit{pos: e.pos, dist: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].pos < hits[j].pos
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]domain.StationDistance, len(hits))
	for i, h := range hits {
		out[i] = domain.StationDistance{Station: c.stations[h.pos], DistanceKm: h.dist}
	}
	return out
}
