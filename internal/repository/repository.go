// Package repository is the PostgreSQL store behind the recommendation engine.
// It implements the behavior, catalog, audit and insight queries on a pgx pool.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// purchasedStatuses is the SQL list of order states that count as a purchase.
const purchasedStatuses = `('processing', 'shipped', 'delivered')`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
