package recommend

import (
	"cmp"
	"math"
	"slices"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// WeightFor returns the combiner weight of a scorer.
func WeightFor(source domain.Source) float64 {
	if w, ok := Weights[source]; ok {
		return w
	}
	return defaultUnknownSourceWeight
}

// Combine merges per-scorer candidates by weighted summation. A product proposed
// by several scorers accumulates every contribution, so scores above 1 are
// expected unless strict is set. Only positive scores are kept, ordered by score
// descending and product id ascending.
func Combine(lists []domain.SourcedCandidates, strict bool) []domain.CombinedCandidate {
	totals := make(map[int64]float64)
	for _, list := range lists {
		weight := WeightFor(list.Source)
		for _, c := range list.Candidates {
			totals[c.ProductID] += weight * c.Score
		}
	}

	out := make([]domain.CombinedCandidate, 0, len(totals))
	for id, score := range totals {
		if score <= 0 {
			continue
		}
		if strict {
			score = math.Min(score, 1)
		}
		out = append(out, domain.CombinedCandidate{ProductID: id, Score: score})
	}

	slices.SortFunc(out, func(a, b domain.CombinedCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out
}
