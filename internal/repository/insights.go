package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// CrossSellPairs returns active product pairs bought in the same order since
// the given time at least minFrequency times. Confidence is left to the caller.
func (r *Repository) CrossSellPairs(ctx context.Context, since time.Time, minFrequency, limit int) ([]domain.CrossSellPair, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi1.product_id, oi2.product_id, COUNT(*) AS frequency, p1.name, p2.name
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi1.product_id < oi2.product_id
		JOIN orders o ON o.id = oi1.order_id
		JOIN products p1 ON p1.id = oi1.product_id
		JOIN products p2 ON p2.id = oi2.product_id
		WHERE o.created_at >= $1
		  AND o.status IN `+purchasedStatuses+`
		  AND p1.is_active AND p2.is_active
		GROUP BY oi1.product_id, oi2.product_id, p1.name, p2.name
		HAVING COUNT(*) >= $2
		ORDER BY frequency DESC, oi1.product_id, oi2.product_id
		LIMIT $3`,
		since, minFrequency, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query cross-sell pairs: %w", err)
	}

	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CrossSellPair, error) {
		var p domain.CrossSellPair
		err := row.Scan(&p.Product1ID, &p.Product2ID, &p.Frequency, &p.Product1Name, &p.Product2Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan cross-sell pairs: %w", err)
	}
	return pairs, nil
}

// TrendingProducts returns active products with at least minSales order lines
// since the given time. TrendScore is left to the caller.
func (r *Repository) TrendingProducts(ctx context.Context, since time.Time, minSales, limit int) ([]domain.TrendingProduct, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.current_price::float8,
			COUNT(oi.id) AS recent_sales,
			COALESCE(SUM(oi.quantity), 0) AS total_quantity,
			COALESCE((SELECT AVG(rv.rating)::float8 FROM reviews rv WHERE rv.product_id = p.id), 0)
		FROM products p
		JOIN order_items oi ON oi.product_id = p.id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1
		  AND o.status IN `+purchasedStatuses+`
		  AND p.is_active
		GROUP BY p.id, p.name, p.current_price
		HAVING COUNT(oi.id) >= $2
		ORDER BY recent_sales DESC, total_quantity DESC, p.id
		LIMIT $3`,
		since, minSales, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query trending products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TrendingProduct, error) {
		var t domain.TrendingProduct
		err := row.Scan(&t.ProductID, &t.Name, &t.Price, &t.RecentSales, &t.TotalQuantity, &t.AvgRating)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan trending products: %w", err)
	}
	return products, nil
}

// CategoryAffinity counts co-purchases between distinct categories since the
// given time, each unordered category pair reported once.
func (r *Repository) CategoryAffinity(ctx context.Context, since time.Time, minCoPurchases, limit int) ([]domain.CategoryAffinity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c1.name, c2.name, COUNT(*) AS co_purchases
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi2.product_id <> oi1.product_id
		JOIN orders o ON o.id = oi1.order_id
		JOIN products p1 ON p1.id = oi1.product_id
		JOIN products p2 ON p2.id = oi2.product_id
		JOIN categories c1 ON c1.id = p1.category_id
		JOIN categories c2 ON c2.id = p2.category_id
		WHERE o.created_at >= $1
		  AND o.status IN `+purchasedStatuses+`
		  AND c1.id < c2.id
		GROUP BY c1.id, c1.name, c2.id, c2.name
		HAVING COUNT(*) >= $2
		ORDER BY co_purchases DESC, c1.name, c2.name
		LIMIT $3`,
		since, minCoPurchases, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query category affinity: %w", err)
	}

	affinities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CategoryAffinity, error) {
		var a domain.CategoryAffinity
		err := row.Scan(&a.Category1, &a.Category2, &a.CoPurchases)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan category affinity: %w", err)
	}
	return affinities, nil
}

// OrderVolume counts purchased orders placed since the given time and their
// average total. The average is 0 when there are none.
func (r *Repository) OrderVolume(ctx context.Context, since time.Time) (domain.OrderVolume, error) {
	var v domain.OrderVolume
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(total_amount), 0)::float8
		FROM orders
		WHERE created_at >= $1
		  AND status IN `+purchasedStatuses,
		since,
	).Scan(&v.TotalOrders, &v.AvgOrderValue)
	if err != nil {
		return domain.OrderVolume{}, fmt.Errorf("query order volume: %w", err)
	}
	return v, nil
}
