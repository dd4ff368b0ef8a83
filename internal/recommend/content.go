package recommend

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const (
	categoryMatchWeight = 0.7
	tagOverlapWeight    = 0.3
	priceBandWeight     = 0.2
	priceBandTolerance  = 0.5
)

// contentProfile is what the content scorer learns from the products a user
// bought or carted.
type contentProfile struct {
	categories   map[int64]struct{}
	tags         map[string]struct{}
	averageSpend float64
}

// Content proposes active products that share a category with anything the
// user bought or carted, scored by category, tag and price affinity.
func Content(ctx context.Context, snap *domain.BehaviorSnapshot, catalog Catalog, opts Options) ([]domain.ScoredCandidate, error) {
	opts = opts.withDefaults()

	if len(snap.Purchases) == 0 && len(snap.Cart) == 0 {
		return nil, nil
	}

	interacted := snap.InteractedIDs()
	entries, err := catalog.GetByIDs(ctx, interacted)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve interacted products: %w", domain.ErrDataUnavailable, err)
	}

	profile := buildContentProfile(entries, snap.AverageSpend())
	if len(profile.categories) == 0 {
		return nil, nil
	}

	categoryIDs := make([]int64, 0, len(profile.categories))
	for id := range profile.categories {
		categoryIDs = append(categoryIDs, id)
	}
	slices.Sort(categoryIDs)

	pool, err := catalog.GetActiveByCategory(ctx, categoryIDs, interacted, opts.ContentPoolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: load category candidates: %w", domain.ErrDataUnavailable, err)
	}

	out := make([]domain.ScoredCandidate, 0, len(pool))
	for _, entry := range pool {
		score := profile.score(entry)
		if opts.StrictBounds {
			score = math.Min(score, 1)
		}
		if score <= opts.ContentMinScore {
			continue
		}
		out = append(out, domain.ScoredCandidate{
			ProductID: entry.ID,
			Score:     score,
			Source:    domain.SourceContentBased,
		})
	}

	slices.SortFunc(out, func(a, b domain.ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out, nil
}

func buildContentProfile(entries []domain.CatalogEntry, averageSpend float64) contentProfile {
	p := contentProfile{
		categories:   make(map[int64]struct{}),
		tags:         make(map[string]struct{}),
		averageSpend: averageSpend,
	}
	for _, e := range entries {
		if e.CategoryID != 0 {
			p.categories[e.CategoryID] = struct{}{}
		}
		for _, tag := range e.Tags {
			p.tags[tag] = struct{}{}
		}
	}
	return p
}

// score sums the three affinity contributions. The sum may exceed 1.
func (p contentProfile) score(e domain.CatalogEntry) float64 {
	score := 0.0

	if _, ok := p.categories[e.CategoryID]; ok {
		score += categoryMatchWeight
	}

	if len(p.tags) > 0 {
		common := 0
		seen := make(map[string]struct{}, len(e.Tags))
		for _, tag := range e.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			if _, ok := p.tags[tag]; ok {
				common++
			}
		}
		score += tagOverlapWeight * float64(common) / float64(len(p.tags))
	}

	if p.averageSpend > 0 {
		diff := math.Abs(e.Price-p.averageSpend) / p.averageSpend
		if diff < priceBandTolerance {
			score += priceBandWeight
		}
	}

	return score
}
