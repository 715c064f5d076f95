// internal/common/rating/postgres.go
package rating

import (
	"context"
	"database/sql"
	"time"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
)

// PostgresStore keeps ratings in the toilet_ratings table.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "rating-postgres"}),
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS toilet_ratings (
			id         BIGSERIAL PRIMARY KEY,
			place      TEXT NOT NULL,
			score      NUMERIC(3,1) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return apperrors.NewRatingStoreFailedError("ensure schema", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO toilet_ratings (place, score, created_at)
		VALUES ($1, $2, $3)`,
		record.Place,
		record.Score,
		time.Now().UTC(),
	)
	if err != nil {
		return apperrors.NewRatingStoreFailedError("append", err)
	}
	return nil
}

func (s *PostgresStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT place, score FROM toilet_ratings ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewRatingStoreFailedError("read", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Place, &r.Score); err != nil {
			return nil, apperrors.NewRatingStoreFailedError("read", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRatingStoreFailedError("read", err)
	}
	return records, nil
}
