package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a rail station.
type Category string

const (
	CategoryRailHeavy Category = "RAIL_HEAVY" // MRT
	CategoryRailLight Category = "RAIL_LIGHT" // LRT
)

// ParseCategory accepts the canonical names as well as the MRT/LRT labels.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MRT", string(CategoryRailHeavy):
		return CategoryRailHeavy, nil
	case "LRT", string(CategoryRailLight):
		return CategoryRailLight, nil
	}
	return "", fmt.Errorf("unknown station category %q", s)
}

// Label returns the short public name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryRailHeavy:
		return "MRT"
	case CategoryRailLight:
		return "LRT"
	}
	return string(c)
}

// Station is a named rail station from the catalog.
type Station struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Position GeoPoint `json:"position"`
}

// StationDistance pairs a station with its distance to a query point.
type StationDistance struct {
	Station    Station `json:"station"`
	DistanceKm float64 `json:"distance_km"`
}

// Model selects the pricing multiplier. The names are labels only.
type Model string

const (
	ModelLinear        Model = "LINEAR"
	ModelGradientBoost Model = "GRADIENT_BOOST"
	ModelNeural        Model = "NEURAL"
)

// Models lists every selectable model in display order.
var Models = []Model{ModelLinear, ModelGradientBoost, ModelNeural}

// ParseModel resolves a model name. The lowercase selector values used by the
// web form (linear, xgboost, neural) are accepted too. Empty means LINEAR.
func ParseModel(s string) (Model, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LINEAR":
		return ModelLinear, nil
	case "GRADIENT_BOOST", "XGBOOST":
		return ModelGradientBoost, nil
	case "NEURAL":
		return ModelNeural, nil
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// YearMonth is a calendar month, serialized as YYYY-MM.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month t falls in.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a YYYY-MM value.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

// MonthsFrom returns the signed number of whole months from ref to ym.
func (ym YearMonth) MonthsFrom(ref YearMonth) int {
	return (ym.Year-ref.Year)*12 + int(ym.Month) - int(ref.Month)
}

// IsZero reports whether the value is unset.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	v, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = v
	return nil
}

// RentInputs is everything the estimator needs for one quote.
type RentInputs struct {
	Point      GeoPoint         `json:"point"`
	Rooms      int              `json:"rooms"`
	SquareFeet float64          `json:"area_sqft"`
	Model      Model            `json:"model"`
	Target     YearMonth        `json:"month"`
	Nearest    *StationDistance `json:"nearest_station,omitempty"`
}

// RentEstimate is a monthly rent in whole currency units.
type RentEstimate int64

// Address is the outcome of a reverse-geocode lookup. Text always holds
// something displayable, either a formatted address or a placeholder.
type Address struct {
	Text     string `json:"address"`
	Found    bool   `json:"found"`
	CacheHit bool   `json:"cache_hit,omitempty"`
}

// Placeholders shown instead of an address.
const (
	AddressNotFound    = "Address not found."
	AddressLookupError = "Error fetching address."
)

// GeocodeCandidate is one building returned by a reverse geocoder.
type GeocodeCandidate struct {
	BuildingName string `json:"building_name"`
	Block        string `json:"block"`
	Road         string `json:"road,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Quote is the full pipeline result for one selected point.
type Quote struct {
	Point         GeoPoint         `json:"point"`
	Projected     ProjectedPoint   `json:"projected"`
	Nearest       *StationDistance `json:"nearest_station,omitempty"`
	Address       Address          `json:"address"`
	Rooms         int              `json:"rooms"`
	SquareFeet    float64          `json:"area_sqft"`
	SquareMeters  float64          `json:"area_sqm"`
	Model         Model            `json:"model"`
	Target        YearMonth        `json:"month"`
	Estimate      RentEstimate     `json:"estimate"`
	LowConfidence bool             `json:"low_confidence"`
	Cell          string           `json:"cell,omitempty"`
	QuotedAt      time.Time        `json:"quoted_at"`
}
