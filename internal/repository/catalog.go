package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const catalogColumns = `p.id, p.name, COALESCE(p.category_id, 0), COALESCE(c.name, ''),
	p.tags, p.current_price::float8, p.stock_quantity, p.is_active, p.is_featured,
	p.demand_score, p.images`

func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]domain.CatalogEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+catalogColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query products by id: %w", err)
	}
	return collectCatalog(rows)
}

func (r *Repository) GetActiveByCategory(ctx context.Context, categoryIDs, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+catalogColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active
		  AND p.category_id = ANY($1)
		  AND NOT (p.id = ANY($2))
		ORDER BY p.id
		LIMIT $3`,
		categoryIDs, nonNilIDs(excludeIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query active products in %d categories: %w", len(categoryIDs), err)
	}
	return collectCatalog(rows)
}

func (r *Repository) TopByDemand(ctx context.Context, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+catalogColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active
		  AND NOT (p.id = ANY($1))
		ORDER BY p.demand_score DESC, p.id
		LIMIT $2`,
		nonNilIDs(excludeIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top products by demand: %w", err)
	}
	return collectCatalog(rows)
}

func collectCatalog(rows pgx.Rows) ([]domain.CatalogEntry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CatalogEntry, error) {
		var e domain.CatalogEntry
		err := row.Scan(
			&e.ID, &e.Name, &e.CategoryID, &e.CategoryName,
			&e.Tags, &e.Price, &e.StockQuantity, &e.IsActive, &e.IsFeatured,
			&e.DemandScore, &e.Images,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return entries, nil
}

// nonNilIDs makes sure an empty exclusion list binds as '{}' rather than NULL,
// since NOT (id = ANY(NULL)) filters every row.
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
