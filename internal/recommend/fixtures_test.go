package recommend

import (
	"context"
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/memstore"
)

type oracleFunc func(ctx context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error)

func (f oracleFunc) Score(ctx context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error) {
	return f(ctx, req)
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func product(id, category int64, price float64, tags ...string) domain.CatalogEntry {
	return domain.CatalogEntry{
		ID:            id,
		Name:          "product",
		CategoryID:    category,
		CategoryName:  "category",
		Tags:          tags,
		Price:         price,
		StockQuantity: 10,
		IsActive:      true,
	}
}

func order(id, userID int64, at time.Time, productIDs ...int64) memstore.Order {
	items := make([]memstore.OrderItem, 0, len(productIDs))
	for _, pid := range productIDs {
		items = append(items, memstore.OrderItem{ProductID: pid, Quantity: 1, UnitPrice: 100})
	}
	return memstore.Order{ID: id, UserID: userID, CreatedAt: at, Items: items}
}

// coPurchaseShop has user 1 owning products 10 and 11, and two neighbor
// orders extending that pair with 20 and 21.
func coPurchaseShop() *memstore.Store {
	s := memstore.New()
	for _, id := range []int64{1, 2, 3} {
		s.AddUser(domain.User{ID: id})
	}
	for _, id := range []int64{10, 11, 20, 21} {
		s.AddProduct(product(id, 0, 100))
	}
	s.AddOrder(order(100, 1, baseTime, 10, 11))
	s.AddOrder(order(200, 2, baseTime, 10, 11, 20))
	s.AddOrder(order(300, 3, baseTime, 10, 11, 21))
	return s
}

func snapshotFor(s *memstore.Store, userID int64) *domain.BehaviorSnapshot {
	snap, err := BuildProfile(context.Background(), s, userID)
	if err != nil {
		panic(err)
	}
	return snap
}
