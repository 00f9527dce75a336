package ports

import (
	"context"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// StationRepository persists the station catalog outside the binary.
type StationRepository interface {
	// List returns every station in catalog order.
	List(ctx context.Context) ([]domain.Station, error)
	ReplaceAll(ctx context.Context, stations []domain.Station) error
	Count(ctx context.Context) (int, error)
}

// QuoteRepository keeps an audit log of batch quotes.
type QuoteRepository interface {
	InsertBatch(ctx context.Context, batchID string, quotes []*domain.Quote) error
	DeleteBatch(ctx context.Context, batchID string) (int64, error)
}
