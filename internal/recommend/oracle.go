package recommend

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// OracleCandidates asks the relevance oracle to score a pool of high-demand
// products the user has not interacted with yet. It never fails: any oracle or
// catalog problem is logged and yields no candidates.
func OracleCandidates(ctx context.Context, snap *domain.BehaviorSnapshot, deps Deps, opts Options, logger zerolog.Logger) []domain.ScoredCandidate {
	opts = opts.withDefaults()

	if deps.Oracle == nil {
		return nil
	}

	pool, err := deps.Catalog.TopByDemand(ctx, snap.InteractedIDs(), opts.OraclePoolSize)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", snap.UserID).Msg("oracle candidate pool unavailable")
		return nil
	}
	if len(pool) == 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.OracleTimeout)
	defer cancel()

	verdicts, err := deps.Oracle.Score(callCtx, domain.OracleRequest{
		UserID:     snap.UserID,
		Purchases:  snap.RecentPurchases(opts.OraclePurchases),
		Cart:       snap.Cart,
		Reviews:    snap.RecentReviews(opts.OracleReviews),
		Candidates: pool,
	})
	if err != nil {
		event := logger.Warn()
		if errors.Is(err, ErrOracleNotConfigured) {
			event = logger.Debug()
		}
		event.Err(err).Int64("user_id", snap.UserID).Msg("oracle scoring skipped")
		return nil
	}

	out, dropped := validateVerdicts(verdicts, pool)
	if dropped > 0 {
		logger.Debug().Int("dropped", dropped).Int64("user_id", snap.UserID).Msg("discarded invalid oracle entries")
	}
	return out
}

// ErrOracleNotConfigured is returned by oracle implementations that have no
// endpoint or credentials. It is reported at debug level only.
var ErrOracleNotConfigured = errors.New("relevance oracle not configured")

// validateVerdicts keeps entries whose product id is an integer from the pool
// and whose score is numeric, clamping scores to [0,1]. Repeated ids keep the
// first occurrence.
func validateVerdicts(verdicts []domain.OracleVerdict, pool []domain.CatalogEntry) ([]domain.ScoredCandidate, int) {
	allowed := make(map[int64]struct{}, len(pool))
	for _, e := range pool {
		allowed[e.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(verdicts))
	out := make([]domain.ScoredCandidate, 0, len(verdicts))
	for _, v := range verdicts {
		id, ok := integerValue(v.ProductID)
		if !ok {
			continue
		}
		if _, ok := allowed[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		score, ok := numericValue(v.Score)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, domain.ScoredCandidate{
			ProductID: id,
			Score:     math.Min(math.Max(score, 0), 1),
			Source:    domain.SourceOracle,
		})
	}
	return out, len(verdicts) - len(out)
}

func integerValue(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		id, err := strconv.ParseInt(n.String(), 10, 64)
		return id, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
