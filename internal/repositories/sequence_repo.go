package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepo hands out per-scope counters atomically.
type SequenceRepo struct {
	pool *pgxpool.Pool
}

func NewSequenceRepo(pool *pgxpool.Pool) *SequenceRepo {
	return &SequenceRepo{pool: pool}
}

// Next increments the counter for scope and returns the new value. A scope
// seen for the first time starts at floor+1, so ids issued before the
// counter existed are skipped.
func (r *SequenceRepo) Next(ctx context.Context, scope string, floor int) (int, error) {
	var v int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO id_sequences (scope, last_value) VALUES ($1, $2 + 1)
		ON CONFLICT (scope) DO UPDATE SET last_value = GREATEST(id_sequences.last_value, $2) + 1, updated_at = now()
		RETURNING last_value
	`, scope, floor).Scan(&v)
	return v, err
}
