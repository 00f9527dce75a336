package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseModel(t *testing.T) {
	cases := map[string]Model{
		"":               ModelLinear,
		"linear":         ModelLinear,
		"xgboost":        ModelGradientBoost,
		"GRADIENT_BOOST": ModelGradientBoost,
		" Neural ":       ModelNeural,
	}
	for in, want := range cases {
		got, err := ParseModel(in)
		if err != nil || got != want {
			t.Errorf("ParseModel(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseModel("random_forest"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("lrt"); err != nil || c != CategoryRailLight {
		t.Errorf("expected RAIL_LIGHT, got %s (%v)", c, err)
	}
	if c, err := ParseCategory("RAIL_HEAVY"); err != nil || c.Label() != "MRT" {
		t.Errorf("expected MRT, got %s (%v)", c, err)
	}
	if _, err := ParseCategory("bus"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2027-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ym.Year != 2027 || ym.Month != time.January {
		t.Errorf("unexpected value %+v", ym)
	}

	ref := YearMonthOf(time.Date(2026, time.October, 31, 23, 59, 0, 0, time.UTC))
	if d := ym.MonthsFrom(ref); d != 3 {
		t.Errorf("expected +3 months, got %d", d)
	}
	if d := ref.MonthsFrom(ym); d != -3 {
		t.Errorf("expected -3 months, got %d", d)
	}

	if _, err := ParseYearMonth("2027-13"); err == nil {
		t.Error("expected error for month 13")
	}
	if !(YearMonth{}).IsZero() {
		t.Error("zero value should be IsZero")
	}
}

func TestYearMonth_JSON(t *testing.T) {
	var in struct {
		Month YearMonth `json:"month"`
	}
	if err := json.Unmarshal([]byte(`{"month":"2026-04"}`), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"month":"2026-04"}` {
		t.Errorf("unexpected json %s", out)
	}
}

func TestValidationError(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Error("empty ValidationError should be nil")
	}
	v.Add("rooms", "must be between 1 and 5")
	v.Add("model", "unknown")

	err := v.OrNil()
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err.Error() != "invalid input: rooms: must be between 1 and 5; model: unknown" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGeoPoint(t *testing.T) {
	if (GeoPoint{Lat: math.Inf(1), Lng: 103.8}).IsFinite() {
		t.Error("infinite point reported finite")
	}
	if !DefaultView.InServiceRegion() {
		t.Error("default view should be in the service region")
	}
	if (GeoPoint{Lat: 1.6, Lng: 103.8}).InServiceRegion() {
		t.Error("1.6N should be outside the service region")
	}
	if !ServiceRegion.Contains(GeoPoint{Lat: 1.5, Lng: 104.1}) {
		t.Error("edges should be inclusive")
	}
}
