package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

var tracer = otel.Tracer("sgrent/usecases")

// batchConcurrency bounds concurrent address lookups in a batch.
const batchConcurrency = 8

// QuoteService runs the full pipeline for a selected point: nearest
// station, address and estimate.
type QuoteService struct {
	stations  *StationService
	addresses *AddressService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewQuoteService creates a new QuoteService. addresses and publisher may be nil.
func NewQuoteService(stations *StationService, addresses *AddressService, publisher ports.EventPublisher) *QuoteService {
	return &QuoteService{stations: stations, addresses: addresses, publisher: publisher, now: time.Now}
}

// WithClock replaces the time source used for the months-ahead offset.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// Now returns the service clock.
func (s *QuoteService) Now() time.Time {
	return s.now()
}

// Estimate validates in, resolves its nearest station and prices it. The
// address is not looked up.
func (s *QuoteService) Estimate(ctx context.Context, in domain.RentInputs) (Breakdown, *domain.StationDistance, error) {
	if err := Validate(in); err != nil {
		return Breakdown{}, nil, err
	}
	in.Nearest = s.nearest(in.Point)
	b := Explain(in, s.now())
	metrics.EstimatesTotal.WithLabelValues(string(in.Model)).Inc()
	return b, in.Nearest, nil
}

// Quote validates in and runs the pipeline. The address lookup runs
// concurrently with station resolution and pricing; its failures never fail
// the quote.
func (s *QuoteService) Quote(ctx context.Context, in domain.RentInputs) (*domain.Quote, error) {
	ctx, span := tracer.Start(ctx, "QuoteService.Quote")
	defer span.End()
	span.SetAttributes(
		attribute.String("quote.model", string(in.Model)),
		attribute.Int("quote.rooms", in.Rooms),
	)

	if err := Validate(in); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	addrCh := make(chan domain.Address, 1)
	if s.addresses != nil {
		go func() { addrCh <- s.addresses.Resolve(ctx, in.Point) }()
	} else {
		addrCh <- domain.Address{Text: domain.AddressNotFound}
	}

	now := s.now()
	in.Nearest = s.nearest(in.Point)
	estimate := Estimate(in, now)
	metrics.EstimatesTotal.WithLabelValues(string(in.Model)).Inc()

	var addr domain.Address
	select {
	case addr = <-addrCh:
	case <-ctx.Done():
		span.SetStatus(codes.Error, "canceled")
		return nil, ctx.Err()
	}

	q := &domain.Quote{
		Point:         in.Point,
		Projected:     geospatial.ProjectToLocalPlane(in.Point),
		Nearest:       in.Nearest,
		Address:       addr,
		Rooms:         in.Rooms,
		SquareFeet:    in.SquareFeet,
		SquareMeters:  SquareFeetToSquareMeters(in.SquareFeet),
		Model:         in.Model,
		Target:        in.Target,
		Estimate:      estimate,
		LowConfidence: !in.Point.InServiceRegion(),
		Cell:          geospatial.CellToken(in.Point, geospatial.QuoteCellLevel),
		QuotedAt:      now.UTC(),
	}
	span.SetAttributes(
		attribute.Int64("quote.estimate", int64(q.Estimate)),
		attribute.Bool("quote.address_found", addr.Found),
	)

	s.publish(ctx, q)
	return q, nil
}

// QuoteBatch quotes every input, preserving order. Inputs are validated up
// front so an invalid item fails the batch before any lookup starts.
func (s *QuoteService) QuoteBatch(ctx context.Context, ins []domain.RentInputs) ([]*domain.Quote, error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%w: quotes: at least one item is required", domain.ErrInvalidInput)
	}
	if len(ins) > MaxBatchQuotes {
		return nil, fmt.Errorf("%w: quotes: at most %d items per batch", domain.ErrInvalidInput, MaxBatchQuotes)
	}
	for i, in := range ins {
		if err := Validate(in); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	out := make([]*domain.Quote, len(ins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, in := range ins {
		g.Go(func() error {
			q, err := s.Quote(gctx, in)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// nearest returns nil when no station can be resolved; the estimate then
// carries no proximity premium.
func (s *QuoteService) nearest(p domain.GeoPoint) *domain.StationDistance {
	sd, err := s.stations.Nearest(p)
	if err != nil {
		if errors.Is(err, domain.ErrNoStationsAvailable) {
			slog.Error("nearest station unavailable, pricing without proximity", "error", err)
		} else {
			slog.Warn("nearest station lookup failed", "error", err)
		}
		return nil
	}
	return &sd
}

func (s *QuoteService) publish(ctx context.Context, q *domain.Quote) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuote(ctx, q); err != nil {
		metrics.QuotesPublished.WithLabelValues("error").Inc()
		slog.Warn("failed to publish quote event", "error", err, "cell", q.Cell)
		return
	}
	metrics.QuotesPublished.WithLabelValues("ok").Inc()
}
