package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/core/usecases"
)

// ErrTypeInvalidInput tags activity failures that retrying cannot fix.
const ErrTypeInvalidInput = "InvalidInput"

// QuoteActivities holds the activity implementations for the batch quote
// workflow. Log and Publisher may be nil.
type QuoteActivities struct {
	Quotes    *usecases.QuoteService
	Log       ports.QuoteRepository
	Publisher ports.EventPublisher
}

// QuoteOne runs the pipeline for one item. Invalid input fails without retry.
func (a *QuoteActivities) QuoteOne(ctx context.Context, in domain.RentInputs) (*domain.Quote, error) {
	q, err := a.Quotes.Quote(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		}
		return nil, fmt.Errorf("quote: %w", err)
	}
	return q, nil
}

// RecordQuotes writes the batch to the quote log.
func (a *QuoteActivities) RecordQuotes(ctx context.Context, batchID string, quotes []*domain.Quote) error {
	if a.Log == nil {
		slog.Info("quote log disabled, skipping record", "batch_id", batchID, "quotes", len(quotes))
		return nil
	}
	if err := a.Log.InsertBatch(ctx, batchID, quotes); err != nil {
		return fmt.Errorf("record batch %s: %w", batchID, err)
	}
	return nil
}

// PublishQuotes emits one event per quote. Every quote is attempted; the
// failures are returned together.
func (a *QuoteActivities) PublishQuotes(ctx context.Context, quotes []*domain.Quote) error {
	if a.Publisher == nil {
		return nil
	}
	var errs []error
	for _, q := range quotes {
		if q == nil {
			continue
		}
		if err := a.Publisher.PublishQuote(ctx, q); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %d of %d quotes failed: %w", len(errs), len(quotes), errors.Join(errs...))
	}
	return nil
}

// DeleteQuotes removes a recorded batch (saga compensation).
func (a *QuoteActivities) DeleteQuotes(ctx context.Context, batchID string) error {
	if a.Log == nil {
		return nil
	}
	n, err := a.Log.DeleteBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("delete batch %s: %w", batchID, err)
	}
	slog.Info("quote batch deleted (saga compensation)", "batch_id", batchID, "rows", n)
	return nil
}
