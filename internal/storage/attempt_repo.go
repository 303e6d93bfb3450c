package storage

import (
	"context"
	"fmt"

	"askfolio/internal/providers"
)

// AttemptRepo keeps an audit trail of provider cascade attempts.
type AttemptRepo struct {
	db *DB
}

func NewAttemptRepo(db *DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

func (r *AttemptRepo) RecordAttempts(ctx context.Context, requestID string, attempts []providers.Attempt) error {
	for i, a := range attempts {
		_, err := r.db.Pool.Exec(ctx, `
INSERT INTO provider_attempts(request_id, seq, provider, model, status, error_type, elapsed_ms)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)`,
			requestID, i+1, a.Provider, a.Model, a.Status, string(a.ErrorType), a.Elapsed.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert provider attempt: %w", err)
		}
	}
	return nil
}

type AttemptRow struct {
	Seq       int
	Provider  string
	Model     string
	Status    string
	ErrorType string
	ElapsedMS int64
}

func (r *AttemptRepo) ListByRequest(ctx context.Context, requestID string) ([]AttemptRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT seq, provider, model, status, COALESCE(error_type,''), elapsed_ms
FROM provider_attempts
WHERE request_id=$1
ORDER BY seq ASC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list provider attempts: %w", err)
	}
	defer rows.Close()
	out := make([]AttemptRow, 0, 4)
	for rows.Next() {
		var a AttemptRow
		if err := rows.Scan(&a.Seq, &a.Provider, &a.Model, &a.Status, &a.ErrorType, &a.ElapsedMS); err != nil {
			return nil, fmt.Errorf("scan provider attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider attempts: %w", err)
	}
	return out, nil
}
