package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/sgrent/internal/core/catalog"
	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
)

func TestParseFlatType(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1 ROOM", 1, false},
		{"3 ROOM", 3, false},
		{"5 room", 5, false},
		{"EXECUTIVE", 5, false},
		{" executive ", 5, false},
		{"ROOM", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := usecases.ParseFlatType(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%q: expected %d, got %d (%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestQuoteService_Predict(t *testing.T) {
	svc := newQuoteService(t, catalog.MustLoad(), nil, nil)

	got, err := svc.Predict(context.Background(), usecases.PredictRequest{
		Lat: 1.3, Lng: 103.8, FlatType: "2 ROOM", AreaSqft: 750, Month: 1, Year: 2027,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3235 {
		t.Errorf("expected 3235, got %d", got)
	}

	got, err = svc.Predict(context.Background(), usecases.PredictRequest{
		Lat: 1.3, Lng: 103.8, FlatType: "EXECUTIVE", AreaSqft: 1200, Month: 1, Year: 2027,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5176 {
		t.Errorf("expected 5176, got %d", got)
	}
}

func TestQuoteService_PredictRejects(t *testing.T) {
	svc := newQuoteService(t, catalog.MustLoad(), nil, nil)

	cases := []usecases.PredictRequest{
		{Lat: 1.3, Lng: 103.8, FlatType: "ROOM", AreaSqft: 750, Month: 1, Year: 2027},
		{Lat: 1.3, Lng: 103.8, FlatType: "3 ROOM", AreaSqft: 750, Month: 13, Year: 2027},
		{Lat: 1.3, Lng: 103.8, FlatType: "3 ROOM", AreaSqft: 750, Month: 1, Year: 2027, Model: "forest"},
	}
	for i, r := range cases {
		if _, err := svc.Predict(context.Background(), r); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}
