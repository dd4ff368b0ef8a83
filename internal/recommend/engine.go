package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
)

// Algorithms lists the scorers every pipeline run consults, in combiner order.
var Algorithms = []domain.Source{
	domain.SourceCollaborative,
	domain.SourceContentBased,
	domain.SourceOracle,
}

// Engine runs the recommendation pipeline. It holds no per-user state and is
// safe for concurrent use.
type Engine struct {
	opts   Options
	logger zerolog.Logger
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Combined is the full combiner output before availability filtering.
	Combined        []domain.CombinedCandidate
	Recommendations []domain.Recommendation
	// UserFound is false for unknown users, whose result is always empty.
	UserFound bool
}

//nolint:gocritic // zerolog.Logger is passed by value
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommend produces at most limit recommendations for userID.
func (e *Engine) Recommend(ctx context.Context, deps Deps, userID int64, limit int) (*Outcome, error) {
	combined, found, err := e.Candidates(ctx, deps, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Outcome{Recommendations: []domain.Recommendation{}}, nil
	}

	recs, err := Rank(ctx, deps.Catalog, combined, limit)
	if err != nil {
		return nil, err
	}
	return &Outcome{Combined: combined, Recommendations: recs, UserFound: true}, nil
}

// Candidates builds the behavior profile, runs the three scorers concurrently
// and combines their output. found is false when the user does not exist.
func (e *Engine) Candidates(ctx context.Context, deps Deps, userID int64) (combined []domain.CombinedCandidate, found bool, err error) {
	exists, err := deps.Behavior.UserExists(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: look up user %d: %w", domain.ErrDataUnavailable, userID, err)
	}
	if !exists {
		e.logger.Debug().Err(domain.ErrUserNotFound).Int64("user_id", userID).Msg("returning empty recommendations")
		return []domain.CombinedCandidate{}, false, nil
	}

	snap, err := BuildProfile(ctx, deps.Behavior, userID)
	if err != nil {
		return nil, true, err
	}

	lists := e.score(ctx, snap, deps)
	return Combine(lists, e.opts.StrictBounds), true, nil
}

// score fans out to the scorers and waits for all of them. A failing scorer
// contributes an empty list.
func (e *Engine) score(ctx context.Context, snap *domain.BehaviorSnapshot, deps Deps) []domain.SourcedCandidates {
	lists := make([]domain.SourcedCandidates, len(Algorithms))
	for i, src := range Algorithms {
		lists[i].Source = src
	}

	var g errgroup.Group
	// cold start: only the oracle has anything to work with
	if snap.Empty() {
		e.logger.Debug().Int64("user_id", snap.UserID).Msg("no behavior history, skipping local scorers")
	} else {
		g.Go(func() error {
			lists[0].Candidates = e.run(domain.SourceCollaborative, snap.UserID, func() ([]domain.ScoredCandidate, error) {
				return Collaborative(ctx, snap, deps.Behavior, e.opts)
			})
			return nil
		})
		g.Go(func() error {
			lists[1].Candidates = e.run(domain.SourceContentBased, snap.UserID, func() ([]domain.ScoredCandidate, error) {
				return Content(ctx, snap, deps.Catalog, e.opts)
			})
			return nil
		})
	}
	g.Go(func() error {
		lists[2].Candidates = e.run(domain.SourceOracle, snap.UserID, func() ([]domain.ScoredCandidate, error) {
			return OracleCandidates(ctx, snap, deps, e.opts, e.logger), nil
		})
		return nil
	})
	_ = g.Wait()

	return lists
}

func (e *Engine) run(source domain.Source, userID int64, fn func() ([]domain.ScoredCandidate, error)) []domain.ScoredCandidate {
	start := time.Now()
	candidates, err := fn()
	metrics.ScorerDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScorerFailures.WithLabelValues(string(source)).Inc()
		e.logger.Warn().
			Err(err).
			Str("scorer", string(source)).
			Int64("user_id", userID).
			Msg("scorer failed, continuing without its candidates")
		return nil
	}

	metrics.ScorerCandidates.WithLabelValues(string(source)).Observe(float64(len(candidates)))
	return candidates
}
