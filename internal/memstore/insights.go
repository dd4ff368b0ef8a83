package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

func (s *Store) recentOrders(since time.Time) []Order {
	var out []Order
	for _, o := range s.orders {
		if purchasedStatuses[o.Status] && !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Store) CrossSellPairs(_ context.Context, since time.Time, minFrequency, limit int) ([]domain.CrossSellPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("CrossSellPairs"); err != nil {
		return nil, err
	}

	counts := make(map[[2]int64]int)
	for _, o := range s.recentOrders(since) {
		for i, a := range o.Items {
			for _, b := range o.Items[i+1:] {
				lo, hi := a.ProductID, b.ProductID
				if lo == hi {
					continue
				}
				if lo > hi {
					lo, hi = hi, lo
				}
				pa, okA := s.products[lo]
				pb, okB := s.products[hi]
				if !okA || !okB || !pa.IsActive || !pb.IsActive {
					continue
				}
				counts[[2]int64{lo, hi}]++
			}
		}
	}

	var out []domain.CrossSellPair
	for pair, n := range counts {
		if n < minFrequency {
			continue
		}
		out = append(out, domain.CrossSellPair{
			Product1ID:   pair[0],
			Product2ID:   pair[1],
			Frequency:    n,
			Product1Name: s.products[pair[0]].Name,
			Product2Name: s.products[pair[1]].Name,
		})
	}
	slices.SortFunc(out, func(a, b domain.CrossSellPair) int {
		if a.Frequency != b.Frequency {
			return b.Frequency - a.Frequency
		}
		if c := cmp.Compare(a.Product1ID, b.Product1ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Product2ID, b.Product2ID)
	})
	return truncate(out, limit), nil
}

func (s *Store) TrendingProducts(_ context.Context, since time.Time, minSales, limit int) ([]domain.TrendingProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("TrendingProducts"); err != nil {
		return nil, err
	}

	byProduct := make(map[int64]*domain.TrendingProduct)
	for _, o := range s.recentOrders(since) {
		for _, it := range o.Items {
			p, ok := s.products[it.ProductID]
			if !ok || !p.IsActive {
				continue
			}
			t, ok := byProduct[p.ID]
			if !ok {
				t = &domain.TrendingProduct{ProductID: p.ID, Name: p.Name, Price: p.Price}
				byProduct[p.ID] = t
			}
			t.RecentSales++
			t.TotalQuantity += it.Quantity
		}
	}

	var out []domain.TrendingProduct
	for id, t := range byProduct {
		if t.RecentSales < minSales {
			continue
		}
		t.AvgRating = s.averageRating(id)
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b domain.TrendingProduct) int {
		if a.RecentSales != b.RecentSales {
			return b.RecentSales - a.RecentSales
		}
		if a.TotalQuantity != b.TotalQuantity {
			return b.TotalQuantity - a.TotalQuantity
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return truncate(out, limit), nil
}

func (s *Store) averageRating(productID int64) float64 {
	total, n := 0, 0
	for _, r := range s.reviews {
		if r.signal.ProductID == productID {
			total += r.signal.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// CategoryAffinity counts ordered pairs of distinct products from different
// categories bought in the same order, reported once per category pair.
func (s *Store) CategoryAffinity(_ context.Context, since time.Time, minCoPurchases, limit int) ([]domain.CategoryAffinity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("CategoryAffinity"); err != nil {
		return nil, err
	}

	counts := make(map[[2]int64]int)
	for _, o := range s.recentOrders(since) {
		for _, a := range o.Items {
			for _, b := range o.Items {
				if a.ProductID == b.ProductID {
					continue
				}
				ca, cb := s.products[a.ProductID].CategoryID, s.products[b.ProductID].CategoryID
				if ca == 0 || cb == 0 || ca >= cb {
					continue
				}
				counts[[2]int64{ca, cb}]++
			}
		}
	}

	names := make(map[int64]string)
	for _, p := range s.products {
		names[p.CategoryID] = p.CategoryName
	}

	var out []domain.CategoryAffinity
	for pair, n := range counts {
		if n < minCoPurchases {
			continue
		}
		out = append(out, domain.CategoryAffinity{
			Category1:   names[pair[0]],
			Category2:   names[pair[1]],
			CoPurchases: n,
		})
	}
	slices.SortFunc(out, func(a, b domain.CategoryAffinity) int {
		if a.CoPurchases != b.CoPurchases {
			return b.CoPurchases - a.CoPurchases
		}
		return cmp.Compare(a.Category1+"/"+a.Category2, b.Category1+"/"+b.Category2)
	})
	return truncate(out, limit), nil
}

func (s *Store) OrderVolume(_ context.Context, since time.Time) (domain.OrderVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("OrderVolume"); err != nil {
		return domain.OrderVolume{}, err
	}

	var v domain.OrderVolume
	total := 0.0
	for _, o := range s.recentOrders(since) {
		v.TotalOrders++
		total += o.TotalAmount
	}
	if v.TotalOrders > 0 {
		v.AvgOrderValue = total / float64(v.TotalOrders)
	}
	return v, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
