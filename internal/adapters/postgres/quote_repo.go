package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// QuoteRepo implements ports.QuoteRepository with pgx.
type QuoteRepo struct {
	db *DB
}

// NewQuoteRepo creates a new QuoteRepo.
func NewQuoteRepo(db *DB) *QuoteRepo {
	return &QuoteRepo{db: db}
}

// InsertBatch appends quotes to the log under batchID, all or nothing. Nil
// entries are skipped.
func (r *QuoteRepo) InsertBatch(ctx context.Context, batchID string, quotes []*domain.Quote) error {
	batch := &pgx.Batch{}
	for _, q := range quotes {
		if q == nil {
			continue
		}
		var station *string
		var distance *float64
		if q.Nearest != nil {
			station = &q.Nearest.Station.Name
			distance = &q.Nearest.DistanceKm
		}
		batch.Queue(`
			INSERT INTO quote_log (batch_id, cell, model, rooms, area_sqft, month, estimate, station, distance_km, quoted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, batchID, q.Cell, string(q.Model), q.Rooms, q.SquareFeet, q.Target.String(),
			int64(q.Estimate), station, distance, q.QuotedAt)
	}
	if batch.Len() == 0 {
		return nil
	}

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		return execBatch(ctx, tx, batch)
	})
}

// DeleteBatch removes every quote logged under batchID.
func (r *QuoteRepo) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM quote_log WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
