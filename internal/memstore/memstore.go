// Package memstore is an in-memory implementation of the catalog, behavior,
// audit and insight stores. It serves as a frozen data snapshot for tests and
// local runs without PostgreSQL.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

type Order struct {
	ID        int64
	UserID    int64
	Status    string
	CreatedAt time.Time
	Items     []OrderItem
	// TotalAmount defaults to the sum of the item lines.
	TotalAmount float64
}

type OrderItem struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

type cartRow struct {
	userID int64
	signal domain.CartSignal
}

type reviewRow struct {
	userID int64
	signal domain.ReviewSignal
}

// purchasedStatuses are the order states that count as a completed purchase.
var purchasedStatuses = map[string]bool{
	"processing": true,
	"shipped":    true,
	"delivered":  true,
}

type Store struct {
	mu sync.RWMutex

	users    map[int64]domain.User
	products map[int64]domain.CatalogEntry
	orders   []Order
	cart     []cartRow
	reviews  []reviewRow
	audit    []domain.AuditRecord

	failures map[string]error
}

func New() *Store {
	return &Store{
		users:    make(map[int64]domain.User),
		products: make(map[int64]domain.CatalogEntry),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddProduct(p domain.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetStock updates the stock of an existing product.
func (s *Store) SetStock(productID int64, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.StockQuantity = qty
		s.products[productID] = p
	}
}

func (s *Store) AddOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Status == "" {
		o.Status = "delivered"
	}
	if o.TotalAmount == 0 {
		for _, it := range o.Items {
			o.TotalAmount += it.UnitPrice * float64(it.Quantity)
		}
	}
	s.orders = append(s.orders, o)
}

func (s *Store) AddCartItem(userID int64, c domain.CartSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = append(s.cart, cartRow{userID: userID, signal: c})
}

func (s *Store) AddReview(userID int64, r domain.ReviewSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, reviewRow{userID: userID, signal: r})
}

// AuditRecords returns a copy of every record written through LogAction.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fail("Ping")
}

func (s *Store) UserExists(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("UserExists"); err != nil {
		return false, err
	}
	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) Purchases(_ context.Context, userID int64) ([]domain.PurchaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("Purchases"); err != nil {
		return nil, err
	}

	var out []domain.PurchaseEvent
	for _, o := range s.orders {
		if o.UserID != userID || !purchasedStatuses[o.Status] {
			continue
		}
		for _, it := range o.Items {
			out = append(out, domain.PurchaseEvent{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				OrderID:   o.ID,
				OrderedAt: o.CreatedAt,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.PurchaseEvent) int {
		return b.OrderedAt.Compare(a.OrderedAt)
	})
	return out, nil
}

func (s *Store) Cart(_ context.Context, userID int64) ([]domain.CartSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("Cart"); err != nil {
		return nil, err
	}

	var out []domain.CartSignal
	for _, row := range s.cart {
		if row.userID == userID {
			out = append(out, row.signal)
		}
	}
	return out, nil
}

func (s *Store) Reviews(_ context.Context, userID int64) ([]domain.ReviewSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("Reviews"); err != nil {
		return nil, err
	}

	var out []domain.ReviewSignal
	for _, row := range s.reviews {
		if row.userID == userID {
			out = append(out, row.signal)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ReviewSignal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) NeighborOrders(_ context.Context, productIDs []int64, excludeUserID int64, minOverlap, limit int) ([]domain.NeighborOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("NeighborOrders"); err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	var out []domain.NeighborOrder
	for _, o := range s.orders {
		if o.UserID == excludeUserID || !purchasedStatuses[o.Status] {
			continue
		}
		// overlap counts distinct shared products, not order lines
		shared := make(map[int64]struct{})
		ids := make([]int64, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
			if _, ok := wanted[it.ProductID]; ok {
				shared[it.ProductID] = struct{}{}
			}
		}
		overlap := len(shared)
		if overlap < minOverlap {
			continue
		}
		out = append(out, domain.NeighborOrder{OrderID: o.ID, Overlap: overlap, ProductIDs: ids})
	}

	slices.SortFunc(out, func(a, b domain.NeighborOrder) int {
		if a.Overlap != b.Overlap {
			return b.Overlap - a.Overlap
		}
		return cmp.Compare(a.OrderID, b.OrderID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetByIDs(_ context.Context, ids []int64) ([]domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("GetByIDs"); err != nil {
		return nil, err
	}

	out := make([]domain.CatalogEntry, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetActiveByCategory(_ context.Context, categoryIDs, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("GetActiveByCategory"); err != nil {
		return nil, err
	}

	return s.selectProducts(limit, func(p domain.CatalogEntry) bool {
		return p.IsActive && slices.Contains(categoryIDs, p.CategoryID) && !slices.Contains(excludeIDs, p.ID)
	}, byID), nil
}

func (s *Store) TopByDemand(_ context.Context, excludeIDs []int64, limit int) ([]domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("TopByDemand"); err != nil {
		return nil, err
	}

	return s.selectProducts(limit, func(p domain.CatalogEntry) bool {
		return p.IsActive && !slices.Contains(excludeIDs, p.ID)
	}, func(a, b domain.CatalogEntry) int {
		if c := cmp.Compare(b.DemandScore, a.DemandScore); c != 0 {
			return c
		}
		return byID(a, b)
	}), nil
}

func (s *Store) selectProducts(limit int, keep func(domain.CatalogEntry) bool, order func(a, b domain.CatalogEntry) int) []domain.CatalogEntry {
	var out []domain.CatalogEntry
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func byID(a, b domain.CatalogEntry) int {
	return cmp.Compare(a.ID, b.ID)
}

func (s *Store) LogAction(_ context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("LogAction"); err != nil {
		return err
	}
	s.audit = append(s.audit, rec)
	return nil
}

func (s *Store) RecentlyActiveUsers(_ context.Context, since time.Time, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("RecentlyActiveUsers"); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range s.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		ids = append(ids, o.UserID)
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
