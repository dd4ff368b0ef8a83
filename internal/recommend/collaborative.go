package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// Collaborative proposes products that appear in other users' orders sharing at
// least MinOverlap products with the user's purchases. Scores are frequency over
// the highest frequency, so the most co-purchased product scores 1.
func Collaborative(ctx context.Context, snap *domain.BehaviorSnapshot, store BehaviorStore, opts Options) ([]domain.ScoredCandidate, error) {
	opts = opts.withDefaults()

	purchased := snap.PurchasedIDs()
	if len(purchased) == 0 {
		return nil, nil
	}

	orders, err := store.NeighborOrders(ctx, purchased, snap.UserID, opts.MinOverlap, opts.NeighborOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: neighbor orders for user %d: %w", domain.ErrDataUnavailable, snap.UserID, err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	owned := make(map[int64]struct{}, len(purchased))
	for _, id := range purchased {
		owned[id] = struct{}{}
	}

	frequency := make(map[int64]int)
	for _, order := range orders {
		for _, id := range order.ProductIDs {
			if _, ok := owned[id]; ok {
				continue
			}
			frequency[id]++
		}
	}
	if len(frequency) == 0 {
		return nil, nil
	}

	type counted struct {
		productID int64
		count     int
	}
	ranked := make([]counted, 0, len(frequency))
	for id, n := range frequency {
		ranked = append(ranked, counted{productID: id, count: n})
	}
	slices.SortFunc(ranked, func(a, b counted) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return cmp.Compare(a.productID, b.productID)
	})
	if len(ranked) > opts.CollaborativeLimit {
		ranked = ranked[:opts.CollaborativeLimit]
	}

	maxCount := float64(ranked[0].count)
	out := make([]domain.ScoredCandidate, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, domain.ScoredCandidate{
			ProductID: c.productID,
			Score:     float64(c.count) / maxCount,
			Source:    domain.SourceCollaborative,
		})
	}
	return out, nil
}
