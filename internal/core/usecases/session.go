package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

// SessionUpdate is what a client renders after a pick or a form change.
// Estimate is nil until a point is selected and the form is valid.
type SessionUpdate struct {
	Generation    uint64                  `json:"generation"`
	Selected      bool                    `json:"selected"`
	Point         domain.GeoPoint         `json:"point"`
	Projected     domain.ProjectedPoint   `json:"projected"`
	Nearest       *domain.StationDistance `json:"nearest_station,omitempty"`
	LowConfidence bool                    `json:"low_confidence"`
	Estimate      *Breakdown              `json:"estimate,omitempty"`
	Problems      []domain.FieldError     `json:"problems,omitempty"`
}

// FormUpdate carries the form fields that changed. Nil fields keep their value.
type FormUpdate struct {
	Rooms      *int     `json:"rooms,omitempty"`
	SquareFeet *float64 `json:"area_sqft,omitempty"`
	Model      *string  `json:"model,omitempty"`
	Month      *string  `json:"month,omitempty"`
}

// Session is one interactive map selection. Nearest station and estimate
// are computed inline on every pick; the address arrives later through a
// callback and only for the latest pick.
type Session struct {
	stations  *StationService
	quotes    *QuoteService
	addresses *AddressService
	sel       *Selection

	mu       sync.Mutex
	inputs   domain.RentInputs
	selected bool
	wg       sync.WaitGroup
}

// NewSession starts a session with the web form defaults. addresses may be nil.
func NewSession(stations *StationService, quotes *QuoteService, addresses *AddressService) *Session {
	return &Session{
		stations:  stations,
		quotes:    quotes,
		addresses: addresses,
		sel:       NewSelection(),
		inputs: domain.RentInputs{
			Rooms:      DefaultRooms,
			SquareFeet: DefaultSquareFeet,
			Model:      domain.ModelLinear,
			Target:     domain.YearMonthOf(quotes.Now()),
		},
	}
}

// Pick selects p. The returned update is complete except for the address,
// which is passed to onAddress unless a newer pick supersedes it first.
// onAddress runs while the selection is locked: a concurrent Pick waits for
// it, so it must not call back into the session.
func (s *Session) Pick(ctx context.Context, p domain.GeoPoint, onAddress func(gen uint64, addr domain.Address)) (SessionUpdate, error) {
	if !p.IsFinite() {
		return SessionUpdate{}, fmt.Errorf("%w: point: coordinates must be finite numbers", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	s.inputs.Point = p
	s.selected = true
	in := s.inputs
	s.mu.Unlock()

	lookupCtx, gen := s.sel.Begin(ctx)
	if s.addresses != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			addr := s.addresses.Resolve(lookupCtx, p)
			var deliver func()
			if onAddress != nil {
				deliver = func() { onAddress(gen, addr) }
			}
			s.sel.Commit(gen, addr, deliver)
		}()
	}

	return s.price(in, gen), nil
}

// Update applies form changes and reprices the current point without a new
// address lookup.
func (s *Session) Update(form FormUpdate) (SessionUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.inputs
	if form.Rooms != nil {
		next.Rooms = *form.Rooms
	}
	if form.SquareFeet != nil {
		next.SquareFeet = *form.SquareFeet
	}
	if form.Model != nil {
		m, err := domain.ParseModel(*form.Model)
		if err != nil {
			return SessionUpdate{}, fmt.Errorf("%w: model: %v", domain.ErrInvalidInput, err)
		}
		next.Model = m
	}
	if form.Month != nil {
		ym, err := domain.ParseYearMonth(*form.Month)
		if err != nil {
			return SessionUpdate{}, fmt.Errorf("%w: month: %v", domain.ErrInvalidInput, err)
		}
		next.Target = ym
	}
	s.inputs = next

	if !s.selected {
		return SessionUpdate{Generation: s.sel.Generation()}, nil
	}
	return s.price(next, s.sel.Generation()), nil
}

// Inputs returns the current form and point.
func (s *Session) Inputs() domain.RentInputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs
}

// Close cancels the pending lookup and waits for it to return.
func (s *Session) Close() {
	s.sel.Close()
	s.wg.Wait()
}

func (s *Session) price(in domain.RentInputs, gen uint64) SessionUpdate {
	u := SessionUpdate{
		Generation:    gen,
		Selected:      true,
		Point:         in.Point,
		Projected:     geospatial.ProjectToLocalPlane(in.Point),
		LowConfidence: !in.Point.InServiceRegion(),
	}
	if sd, err := s.stations.Nearest(in.Point); err == nil {
		u.Nearest = &sd
	}
	in.Nearest = u.Nearest

	if err := Validate(in); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			u.Problems = verr.Fields
		}
		return u
	}
	b := Explain(in, s.quotes.Now())
	metrics.EstimatesTotal.WithLabelValues(string(in.Model)).Inc()
	u.Estimate = &b
	return u
}
