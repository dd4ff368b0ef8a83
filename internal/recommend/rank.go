package recommend

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// overFetchFactor bounds how many combined candidates are resolved against the
// catalog per requested recommendation.
const overFetchFactor = 2

// Rank resolves the top combined candidates against the live catalog and keeps
// the first limit that are active and in stock, preserving combiner order. It
// never backfills. A catalog failure wraps domain.ErrDataUnavailable.
func Rank(ctx context.Context, catalog Catalog, combined []domain.CombinedCandidate, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 || len(combined) == 0 {
		return []domain.Recommendation{}, nil
	}

	top := combined[:min(len(combined), overFetchFactor*limit)]
	ids := make([]int64, 0, len(top))
	for _, c := range top {
		ids = append(ids, c.ProductID)
	}

	entries, err := catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve recommended products: %w", domain.ErrDataUnavailable, err)
	}

	lookup := make(map[int64]domain.CatalogEntry, len(entries))
	for _, e := range entries {
		lookup[e.ID] = e
	}

	out := make([]domain.Recommendation, 0, limit)
	seen := make(map[int64]struct{}, limit)
	for _, c := range top {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[c.ProductID]; dup {
			continue
		}
		entry, ok := lookup[c.ProductID]
		if !ok || !entry.Available() {
			continue
		}
		seen[c.ProductID] = struct{}{}
		out = append(out, toRecommendation(entry, c.Score))
	}
	return out, nil
}

func toRecommendation(e domain.CatalogEntry, score float64) domain.Recommendation {
	images := e.Images
	if images == nil {
		images = []string{}
	}
	return domain.Recommendation{
		ProductID:           e.ID,
		Name:                e.Name,
		Price:               e.Price,
		Category:            e.CategoryName,
		RecommendationScore: score,
		StockQuantity:       e.StockQuantity,
		IsFeatured:          e.IsFeatured,
		Images:              images,
	}
}
