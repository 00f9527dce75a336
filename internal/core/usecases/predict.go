package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// ExecutiveFlatRooms is the room count used for EXECUTIVE flats.
const ExecutiveFlatRooms = 5

// ParseFlatType reads the room count from an HDB flat type such as
// "3 ROOM" or "EXECUTIVE".
func ParseFlatType(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "EXECUTIVE" {
		return ExecutiveFlatRooms, nil
	}
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		return int(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: flat_type: unrecognised value %q", domain.ErrInvalidInput, s)
}

// PredictRequest is the flat form posted by the original web client.
type PredictRequest struct {
	Lat      float64
	Lng      float64
	FlatType string
	AreaSqft float64
	Month    int
	Year     int
	Model    string
}

// Inputs converts r into estimator inputs.
func (r PredictRequest) Inputs() (domain.RentInputs, error) {
	rooms, err := ParseFlatType(r.FlatType)
	if err != nil {
		return domain.RentInputs{}, err
	}
	model, err := domain.ParseModel(r.Model)
	if err != nil {
		return domain.RentInputs{}, fmt.Errorf("%w: model: %v", domain.ErrInvalidInput, err)
	}
	return domain.RentInputs{
		Point:      domain.GeoPoint{Lat: r.Lat, Lng: r.Lng},
		Rooms:      rooms,
		SquareFeet: r.AreaSqft,
		Model:      model,
		Target:     domain.YearMonth{Year: r.Year, Month: time.Month(r.Month)},
	}, nil
}

// Predict prices a PredictRequest with the heuristic estimator.
func (s *QuoteService) Predict(ctx context.Context, r PredictRequest) (domain.RentEstimate, error) {
	in, err := r.Inputs()
	if err != nil {
		return 0, err
	}
	b, _, err := s.Estimate(ctx, in)
	if err != nil {
		return 0, err
	}
	return b.Estimate, nil
}
