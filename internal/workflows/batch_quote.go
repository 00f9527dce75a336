package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
)

// BatchQuoteInput is the input for the batch quote workflow.
type BatchQuoteInput struct {
	BatchID string
	Items   []domain.RentInputs
}

// ItemError reports a batch item that could not be quoted.
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BatchQuoteResult holds the quotes in item order. Failed items are nil in
// Quotes and listed in Errors.
type BatchQuoteResult struct {
	BatchID string          `json:"batch_id"`
	Quotes  []*domain.Quote `json:"quotes"`
	Errors  []ItemError     `json:"errors,omitempty"`
}

// BatchQuoteWorkflow quotes every item, records the batch in the quote log
// and publishes the quote events. If publishing fails, the recorded batch is
// deleted (saga compensation) so the log only holds announced quotes.
func BatchQuoteWorkflow(ctx workflow.Context, input BatchQuoteInput) (*BatchQuoteResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch quote workflow", "batchID", input.BatchID, "items", len(input.Items))

	if input.BatchID == "" {
		return nil, temporal.NewNonRetryableApplicationError("batch id is required", ErrTypeInvalidInput, nil)
	}
	if len(input.Items) == 0 || len(input.Items) > usecases.MaxBatchQuotes {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("batch must hold 1 to %d items, got %d", usecases.MaxBatchQuotes, len(input.Items)),
			ErrTypeInvalidInput, nil)
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: quote every item concurrently
	futures := make([]workflow.Future, len(input.Items))
	for i, in := range input.Items {
		futures[i] = workflow.ExecuteActivity(ctx, "QuoteOne", in)
	}

	result := &BatchQuoteResult{BatchID: input.BatchID, Quotes: make([]*domain.Quote, len(input.Items))}
	var quoted []*domain.Quote
	for i, f := range futures {
		var q domain.Quote
		if err := f.Get(ctx, &q); err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Message: err.Error()})
			continue
		}
		result.Quotes[i] = &q
		quoted = append(quoted, &q)
	}
	if len(quoted) == 0 {
		logger.Warn("No item could be quoted", "batchID", input.BatchID)
		return result, nil
	}

	// Step 2: record the batch
	if err := workflow.ExecuteActivity(ctx, "RecordQuotes", input.BatchID, quoted).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 3: publish
	if err := workflow.ExecuteActivity(ctx, "PublishQuotes", quoted).Get(ctx, nil); err != nil {
		logger.Warn("publishing failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "DeleteQuotes", input.BatchID).Get(ctx, nil)
		return nil, err
	}

	logger.Info("Batch quoted", "batchID", input.BatchID, "quoted", len(quoted), "failed", len(result.Errors))
	return result, nil
}
