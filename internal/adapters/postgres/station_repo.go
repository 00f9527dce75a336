package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// StationRepo implements ports.StationRepository with pgx.
type StationRepo struct {
	db *DB
}

// NewStationRepo creates a new StationRepo.
func NewStationRepo(db *DB) *StationRepo {
	return &StationRepo{db: db}
}

// List returns every station ordered by its catalog position.
func (r *StationRepo) List(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, category, lat, lng
		FROM stations
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var s domain.Station
		var category string
		if err := rows.Scan(&s.Name, &category, &s.Position.Lat, &s.Position.Lng); err != nil {
			return nil, err
		}
		s.Category = domain.Category(category)
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// ReplaceAll swaps the table contents for stations in one transaction.
// Slice order becomes catalog position.
func (r *StationRepo) ReplaceAll(ctx context.Context, stations []domain.Station) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stations`); err != nil {
			return fmt.Errorf("clear: %w", err)
		}

		batch := &pgx.Batch{}
		for i, s := range stations {
			batch.Queue(`
				INSERT INTO stations (position, name, category, lat, lng, updated_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, i, s.Name, string(s.Category), s.Position.Lat, s.Position.Lng)
		}
		return execBatch(ctx, tx, batch)
	})
}

// Count returns the number of stored stations.
func (r *StationRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM stations`).Scan(&n)
	return n, err
}
