package usecases

import (
	"math"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// Breakdown shows how an estimate was composed.
type Breakdown struct {
	Subtotal        float64             `json:"subtotal"`
	ModelFactor     float64             `json:"model_factor"`
	LocationFactor  float64             `json:"location_factor"`
	MonthsAhead     int                 `json:"months_ahead"`
	TimeFactor      float64             `json:"time_factor"`
	ProximityFactor float64             `json:"proximity_factor"`
	Raw             float64             `json:"raw"`
	Estimate        domain.RentEstimate `json:"estimate"`
}

// Estimate prices in relative to the calendar month of now. It performs no
// validation and no clamping; see Validate.
func Estimate(in domain.RentInputs, now time.Time) domain.RentEstimate {
	return Explain(in, now).Estimate
}

// Explain is Estimate with every intermediate factor exposed.
func Explain(in domain.RentInputs, now time.Time) Breakdown {
	b := Breakdown{
		Subtotal:        BaseRent + float64(in.Rooms)*RentPerRoom + in.SquareFeet*RentPerSquareFoot,
		ModelFactor:     ModelFactor(in.Model),
		LocationFactor:  LocationFactor(in.Point.Lat),
		MonthsAhead:     in.Target.MonthsFrom(domain.YearMonthOf(now)),
		ProximityFactor: ProximityFactor(in.Nearest),
	}
	b.TimeFactor = 1 + float64(b.MonthsAhead)*TimeFactorPerMonth
	b.Raw = b.Subtotal * b.ModelFactor * b.LocationFactor * b.TimeFactor * b.ProximityFactor
	b.Estimate = domain.RentEstimate(math.Round(b.Raw))
	return b
}

// ModelFactor returns the multiplier for m. Unknown models price like LINEAR.
func ModelFactor(m domain.Model) float64 {
	if f, ok := ModelFactors[m]; ok {
		return f
	}
	return ModelFactors[domain.ModelLinear]
}

// LocationFactor derives a pseudo-variation in [0.85, 1.15) from latitude.
// It is not a spatial valuation.
func LocationFactor(lat float64) float64 {
	return math.Mod(lat*LocationLatScale, LocationFactorSpan) + LocationFactorFloor
}

// ProximityFactor maps the nearest-station distance to a premium. A nil
// station means none was resolved.
func ProximityFactor(nearest *domain.StationDistance) float64 {
	if nearest == nil {
		return NoProximityFactor
	}
	for _, band := range ProximityBands {
		if nearest.DistanceKm < band.UnderKm {
			return band.Factor
		}
	}
	return NoProximityFactor
}

// Validate checks in at the service boundary. Points outside the service
// region are allowed; they only lower confidence.
func Validate(in domain.RentInputs) error {
	verr := &domain.ValidationError{}

	if in.Rooms < MinRooms || in.Rooms > MaxRooms {
		verr.Add("rooms", "must be between 1 and 5")
	}
	if math.IsNaN(in.SquareFeet) || in.SquareFeet < MinSquareFeet || in.SquareFeet > MaxSquareFeet {
		verr.Add("area_sqft", "must be between 300 and 3000")
	}
	if _, ok := ModelFactors[in.Model]; !ok {
		verr.Add("model", "must be one of LINEAR, GRADIENT_BOOST, NEURAL")
	}
	if in.Target.IsZero() || in.Target.Month < time.January || in.Target.Month > time.December {
		verr.Add("month", "must be a YYYY-MM value")
	}
	if !in.Point.IsFinite() {
		verr.Add("point", "coordinates must be finite numbers")
	}

	return verr.OrNil()
}

// SquareFeetToSquareMeters converts floor area, rounded to two decimals.
func SquareFeetToSquareMeters(sqft float64) float64 {
	return math.Round(sqft/SquareFeetPerSquareMeter*100) / 100
}
