// Package recommend implements the recommendation pipeline: behavior profile,
// collaborative, content and oracle scorers, the weighted combiner and the
// availability filter. Every stage is a function of its inputs; stores and the
// oracle are passed in through Deps on each call.
package recommend

import (
	"context"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// BehaviorStore reads a user's purchase, cart and review history.
type BehaviorStore interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	Purchases(ctx context.Context, userID int64) ([]domain.PurchaseEvent, error)
	Cart(ctx context.Context, userID int64) ([]domain.CartSignal, error)
	Reviews(ctx context.Context, userID int64) ([]domain.ReviewSignal, error)

	// NeighborOrders returns orders placed by users other than excludeUserID that
	// contain at least minOverlap of productIDs, ranked by overlap, at most limit.
	NeighborOrders(ctx context.Context, productIDs []int64, excludeUserID int64, minOverlap, limit int) ([]domain.NeighborOrder, error)
}

// Catalog is read-only access to product records.
type Catalog interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.CatalogEntry, error)
	GetActiveByCategory(ctx context.Context, categoryIDs, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error)
	TopByDemand(ctx context.Context, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error)
}

// Oracle is an external relevance scoring service.
type Oracle interface {
	Score(ctx context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error)
}

// Deps carries the collaborators for a single pipeline run. Oracle may be nil.
type Deps struct {
	Behavior BehaviorStore
	Catalog  Catalog
	Oracle   Oracle
}
