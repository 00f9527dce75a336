package usecases

import (
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// Pricing constants. Quotes are only comparable across releases while these
// stay exactly as they are.
const (
	BaseRent          = 1500.0
	RentPerRoom       = 500.0
	RentPerSquareFoot = 0.5

	// locationFactor = mod(lat * LocationLatScale, LocationFactorSpan) + LocationFactorFloor
	LocationLatScale    = 1000.0
	LocationFactorSpan  = 0.3
	LocationFactorFloor = 0.85

	TimeFactorPerMonth = 0.01

	NoProximityFactor = 1.0
)

// ModelFactors maps each model to its price multiplier.
var ModelFactors = map[domain.Model]float64{
	domain.ModelLinear:        1.00,
	domain.ModelGradientBoost: 1.05,
	domain.ModelNeural:        0.95,
}

// ProximityBand applies Factor when the nearest station is strictly closer than UnderKm.
type ProximityBand struct {
	UnderKm float64
	Factor  float64
}

// ProximityBands are checked in order; the first match wins.
var ProximityBands = []ProximityBand{
	{UnderKm: 0.5, Factor: 1.15},
	{UnderKm: 1, Factor: 1.10},
	{UnderKm: 2, Factor: 1.05},
}

// Accepted input ranges.
const (
	MinRooms      = 1
	MaxRooms      = 5
	MinSquareFeet = 300.0
	MaxSquareFeet = 3000.0

	SquareFeetPerSquareMeter = 10.764
)

// Address lookup.
const (
	DefaultAddressTimeout = 5 * time.Second
	DefaultAddressTTL     = 24 * time.Hour
)

// MaxBatchQuotes bounds a single batch request.
const MaxBatchQuotes = 50

// Form values of a fresh selection session.
const (
	DefaultRooms      = 1
	DefaultSquareFeet = 500.0
)
