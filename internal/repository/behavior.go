package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

func (r *Repository) Purchases(ctx context.Context, userID int64) ([]domain.PurchaseEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi.product_id, oi.quantity, oi.unit_price::float8, o.id, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1
		  AND o.status IN `+purchasedStatuses+`
		ORDER BY o.created_at DESC, oi.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get purchases for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []domain.PurchaseEvent
	for rows.Next() {
		var p domain.PurchaseEvent
		if err := rows.Scan(&p.ProductID, &p.Quantity, &p.UnitPrice, &p.OrderID, &p.OrderedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over purchases: %w", err)
	}
	return items, nil
}

func (r *Repository) Cart(ctx context.Context, userID int64) ([]domain.CartSignal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []domain.CartSignal
	for rows.Next() {
		var c domain.CartSignal
		if err := rows.Scan(&c.ProductID, &c.Quantity, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over cart items: %w", err)
	}
	return items, nil
}

func (r *Repository) Reviews(ctx context.Context, userID int64) ([]domain.ReviewSignal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, rating, COALESCE(sentiment_score, 0), created_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get reviews for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []domain.ReviewSignal
	for rows.Next() {
		var rv domain.ReviewSignal
		if err := rows.Scan(&rv.ProductID, &rv.Rating, &rv.SentimentScore, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		items = append(items, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over reviews: %w", err)
	}
	return items, nil
}

// NeighborOrders finds the orders of other users that share at least
// minOverlap products with productIDs, most overlapping first, together with
// every product each order contains.
func (r *Repository) NeighborOrders(ctx context.Context, productIDs []int64, excludeUserID int64, minOverlap, limit int) ([]domain.NeighborOrder, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`WITH neighbor AS (
			SELECT o.id, COUNT(DISTINCT oi.product_id) AS overlap
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id <> $2
			  AND o.status IN `+purchasedStatuses+`
			  AND oi.product_id = ANY($1)
			GROUP BY o.id
			HAVING COUNT(DISTINCT oi.product_id) >= $3
			ORDER BY overlap DESC, o.id
			LIMIT $4
		)
		SELECT n.id, n.overlap, array_agg(oi.product_id ORDER BY oi.id)
		FROM neighbor n
		JOIN order_items oi ON oi.order_id = n.id
		GROUP BY n.id, n.overlap
		ORDER BY n.overlap DESC, n.id`,
		productIDs, excludeUserID, minOverlap, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query neighbor orders for user %d: %w", excludeUserID, err)
	}
	defer rows.Close()

	var orders []domain.NeighborOrder
	for rows.Next() {
		var o domain.NeighborOrder
		if err := rows.Scan(&o.OrderID, &o.Overlap, &o.ProductIDs); err != nil {
			return nil, fmt.Errorf("scan neighbor order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over neighbor orders: %w", err)
	}
	return orders, nil
}
