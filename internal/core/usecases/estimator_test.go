package usecases_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
)

var refNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func baseInputs() domain.RentInputs {
	return domain.RentInputs{
		Point:      domain.GeoPoint{Lat: 1.3, Lng: 103.8},
		Rooms:      1,
		SquareFeet: 500,
		Model:      domain.ModelLinear,
		Target:     domain.YearMonth{Year: 2026, Month: time.October},
	}
}

func station(distanceKm float64) *domain.StationDistance {
	return &domain.StationDistance{
		Station:    domain.Station{Name: "Commonwealth", Category: domain.CategoryRailHeavy},
		DistanceKm: distanceKm,
	}
}

func TestEstimate_ReferenceComposition(t *testing.T) {
	in := baseInputs()

	b := usecases.Explain(in, refNow)
	if b.Subtotal != 2250 {
		t.Errorf("expected subtotal 2250, got %v", b.Subtotal)
	}
	if b.TimeFactor != 1 || b.ProximityFactor != 1 || b.ModelFactor != 1 {
		t.Errorf("expected neutral factors, got %+v", b)
	}

	want := math.Round(2250 * 1.0 * usecases.LocationFactor(1.3) * 1.0 * 1.0)
	if float64(b.Estimate) != want {
		t.Errorf("expected %v, got %d", want, b.Estimate)
	}
	if b.Estimate != 2138 {
		t.Errorf("expected 2138, got %d", b.Estimate)
	}
}

func TestEstimate_KnownQuotes(t *testing.T) {
	cases := []struct {
		name string
		in   domain.RentInputs
		want domain.RentEstimate
	}{
		{
			name: "gradient boost two months ahead near a station",
			in: domain.RentInputs{
				Point: domain.GeoPoint{Lat: 1.3521, Lng: 103.8198}, Rooms: 3, SquareFeet: 1000,
				Model: domain.ModelGradientBoost, Target: domain.YearMonth{Year: 2026, Month: time.December},
				Nearest: station(0.75),
			},
			want: 3505,
		},
		{
			name: "neural six months back at a station",
			in: domain.RentInputs{
				Point: domain.GeoPoint{Lat: 1.35092, Lng: 103.848206}, Rooms: 5, SquareFeet: 3000,
				Model: domain.ModelNeural, Target: domain.YearMonth{Year: 2026, Month: time.April},
				Nearest: station(0.1),
			},
			want: 4914,
		},
		{
			name: "linear across a year boundary",
			in: domain.RentInputs{
				Point: domain.GeoPoint{Lat: 1.3, Lng: 103.8}, Rooms: 2, SquareFeet: 750,
				Model: domain.ModelLinear, Target: domain.YearMonth{Year: 2027, Month: time.January},
				Nearest: station(1.5),
			},
			want: 2954,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := usecases.Estimate(tc.in, refNow); got != tc.want {
				t.Errorf("expected %d, got %d (%+v)", tc.want, got, usecases.Explain(tc.in, refNow))
			}
		})
	}
}

func TestProximityFactor_Bands(t *testing.T) {
	cases := []struct {
		dist float64
		want float64
	}{
		{0, 1.15},
		{0.3, 1.15},
		{0.4999, 1.15},
		{0.5, 1.10},
		{0.9999, 1.10},
		{1, 1.05},
		{1.9999, 1.05},
		{2, 1.0},
		{12, 1.0},
	}
	for _, tc := range cases {
		if got := usecases.ProximityFactor(station(tc.dist)); got != tc.want {
			t.Errorf("distance %v: expected %v, got %v", tc.dist, tc.want, got)
		}
	}

	if got := usecases.ProximityFactor(nil); got != 1.0 {
		t.Errorf("no station: expected 1.0, got %v", got)
	}
}

func TestEstimate_ModelRatios(t *testing.T) {
	in := baseInputs()
	in.Nearest = station(0.8)

	raw := map[domain.Model]float64{}
	for _, m := range domain.Models {
		in.Model = m
		raw[m] = usecases.Explain(in, refNow).Raw
	}

	check := func(a, b domain.Model, ratio float64) {
		t.Helper()
		if got := raw[a] / raw[b]; math.Abs(got-ratio) > 1e-12 {
			t.Errorf("%s/%s: expected ratio %v, got %v", a, b, ratio, got)
		}
	}
	check(domain.ModelGradientBoost, domain.ModelLinear, 1.05)
	check(domain.ModelNeural, domain.ModelLinear, 0.95)
	check(domain.ModelGradientBoost, domain.ModelNeural, 1.05/0.95)
}

func TestLocationFactor_Bounds(t *testing.T) {
	for lat := 1.1; lat <= 1.5; lat += 0.00037 {
		f := usecases.LocationFactor(lat)
		if f < 0.85 || f >= 1.15 {
			t.Fatalf("lat %v: factor %v outside [0.85, 1.15)", lat, f)
		}
	}
}

func TestEstimate_TimeFactor(t *testing.T) {
	in := baseInputs()

	in.Target = domain.YearMonth{Year: 2027, Month: time.January}
	if b := usecases.Explain(in, refNow); b.MonthsAhead != 3 || math.Abs(b.TimeFactor-1.03) > 1e-12 {
		t.Errorf("expected +3 months / 1.03, got %d / %v", b.MonthsAhead, b.TimeFactor)
	}

	in.Target = domain.YearMonth{Year: 2026, Month: time.April}
	if b := usecases.Explain(in, refNow); b.MonthsAhead != -6 || math.Abs(b.TimeFactor-0.94) > 1e-12 {
		t.Errorf("expected -6 months / 0.94, got %d / %v", b.MonthsAhead, b.TimeFactor)
	}
}

func TestEstimate_Idempotent(t *testing.T) {
	in := baseInputs()
	in.Nearest = station(0.42)

	first := usecases.Estimate(in, refNow)
	for i := 0; i < 10; i++ {
		if got := usecases.Estimate(in, refNow); got != first {
			t.Fatalf("call %d returned %d, first returned %d", i, got, first)
		}
	}
}

func TestEstimate_NoClamping(t *testing.T) {
	in := baseInputs()
	in.Rooms = 40
	in.SquareFeet = 100000

	// 1500 + 20000 + 50000, still priced
	if got := usecases.Explain(in, refNow).Subtotal; got != 71500 {
		t.Errorf("expected subtotal 71500, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := usecases.Validate(baseInputs()); err != nil {
		t.Fatalf("valid inputs rejected: %v", err)
	}

	bad := domain.RentInputs{
		Point:      domain.GeoPoint{Lat: math.NaN(), Lng: 103.8},
		Rooms:      6,
		SquareFeet: 299,
		Model:      "RANDOM_FOREST",
	}
	err := usecases.Validate(bad)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, f := range []string{"rooms", "area_sqft", "model", "month", "point"} {
		if !fields[f] {
			t.Errorf("expected %s to be rejected", f)
		}
	}
}

func TestValidate_OutOfRegionAllowed(t *testing.T) {
	in := baseInputs()
	in.Point = domain.GeoPoint{Lat: 40.7, Lng: -74.0}
	if err := usecases.Validate(in); err != nil {
		t.Errorf("out-of-region point should not be rejected: %v", err)
	}
}

func TestSquareFeetToSquareMeters(t *testing.T) {
	if got := usecases.SquareFeetToSquareMeters(1076.4); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := usecases.SquareFeetToSquareMeters(500); got != 46.45 {
		t.Errorf("expected 46.45, got %v", got)
	}
}
