package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
	"github.com/actuallystonmai/product-recommender/internal/recommend"
)

const (
	defaultLimit        = 10
	maxLimit            = 50
	batchMaxUsers       = 100
	batchRecLimit       = 5
	batchConcurrency    = 10
	defaultActiveWindow = 30 * 24 * time.Hour
	auditTimeout        = 2 * time.Second

	agentName           = "recommendation_agent"
	actionGenerate      = "generate_recommendations"
	auditTargetTypeUser = "user"
)

// Store is everything the service reads from and writes to the database.
type Store interface {
	recommend.BehaviorStore
	recommend.Catalog
	LogAction(ctx context.Context, rec domain.AuditRecord) error
	RecentlyActiveUsers(ctx context.Context, since time.Time, limit int) ([]int64, error)
	CrossSellPairs(ctx context.Context, since time.Time, minFrequency, limit int) ([]domain.CrossSellPair, error)
	TrendingProducts(ctx context.Context, since time.Time, minSales, limit int) ([]domain.TrendingProduct, error)
	CategoryAffinity(ctx context.Context, since time.Time, minCoPurchases, limit int) ([]domain.CategoryAffinity, error)
	OrderVolume(ctx context.Context, since time.Time) (domain.OrderVolume, error)
	Ping(ctx context.Context) error
}

// CandidateCache stores combined candidate lists per user.
type CandidateCache interface {
	GetCandidates(ctx context.Context, userID int64) ([]domain.CombinedCandidate, bool, error)
	SetCandidates(ctx context.Context, userID int64, candidates []domain.CombinedCandidate) error
	ClearUserCache(ctx context.Context, userID int64) error
	Ping(ctx context.Context) error
}

type Options struct {
	DefaultLimit     int
	MaxLimit         int
	BatchMaxUsers    int
	BatchLimit       int
	BatchConcurrency int
	ActiveWindow     time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = maxLimit
	}
	if o.BatchMaxUsers <= 0 {
		o.BatchMaxUsers = batchMaxUsers
	}
	if o.BatchLimit <= 0 {
		o.BatchLimit = batchRecLimit
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = batchConcurrency
	}
	if o.ActiveWindow <= 0 {
		o.ActiveWindow = defaultActiveWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Service struct {
	store  Store
	cache  CandidateCache
	oracle recommend.Oracle
	engine *recommend.Engine
	opts   Options
	logger zerolog.Logger
}

// NewService wires the pipeline. cache and oracle may be nil.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewService(store Store, cache CandidateCache, oracle recommend.Oracle, engine *recommend.Engine, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		oracle: oracle,
		engine: engine,
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "service").Logger(),
	}
}

func (s *Service) deps() recommend.Deps {
	return recommend.Deps{Behavior: s.store, Catalog: s.store, Oracle: s.oracle}
}

// MaxLimit is the largest accepted per-user recommendation count.
func (s *Service) MaxLimit() int {
	return s.opts.MaxLimit
}

// MaxBatchUsers is the largest accepted batch size.
func (s *Service) MaxBatchUsers() int {
	return s.opts.BatchMaxUsers
}

// GetRecommendations returns at most limit recommendations for userID. An
// unknown user gets an empty list, not an error.
func (s *Service) GetRecommendations(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	} else if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	requestID := uuid.NewString()

	recs, cacheHit, err := s.recommend(ctx, userID, limit)
	elapsed := time.Since(start)
	metrics.RecommendationDuration.WithLabelValues(strconv.FormatBool(cacheHit)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		s.audit(ctx, domain.AuditRecord{
			TargetID:      userID,
			ActionData:    map[string]any{"request_id": requestID, "limit": limit},
			Result:        domain.StatusFailed,
			ErrorMessage:  err.Error(),
			ExecutionTime: elapsed,
		})
		return nil, err
	}

	outcome := "success"
	if len(recs) == 0 {
		outcome = "empty"
	}
	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()

	s.audit(ctx, domain.AuditRecord{
		TargetID: userID,
		ActionData: map[string]any{
			"request_id":           requestID,
			"limit":                limit,
			"cache_hit":            cacheHit,
			"recommendation_count": len(recs),
			"algorithms_used":      recommend.Algorithms,
		},
		Result:        domain.StatusSuccess,
		ExecutionTime: elapsed,
	})

	return &domain.RecommendationResult{
		Recommendations: recs,
		CacheHit:        cacheHit,
		RequestID:       requestID,
		AlgorithmsUsed:  recommend.Algorithms,
	}, nil
}

func (s *Service) recommend(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, bool, error) {
	deps := s.deps()

	// Check Cache
	if cached, hit := s.cachedCandidates(ctx, userID); hit {
		recs, err := recommend.Rank(ctx, deps.Catalog, cached, limit)
		return recs, true, err
	}

	// Cache miss -> run the pipeline
	combined, found, err := s.engine.Candidates(ctx, deps, userID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return []domain.Recommendation{}, false, nil
	}

	if s.cache != nil {
		if err := s.cache.SetCandidates(ctx, userID, combined); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache set failed")
		}
	}

	recs, err := recommend.Rank(ctx, deps.Catalog, combined, limit)
	return recs, false, err
}

func (s *Service) cachedCandidates(ctx context.Context, userID int64) ([]domain.CombinedCandidate, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, hit, err := s.cache.GetCandidates(ctx, userID)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache get failed, treating as miss")
		return nil, false
	case hit:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return cached, true
	default:
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
}

// audit writes the agent log entry. Failures are logged and counted only.
func (s *Service) audit(ctx context.Context, rec domain.AuditRecord) {
	rec.AgentName = agentName
	rec.ActionType = actionGenerate
	rec.TargetType = auditTargetTypeUser

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.store.LogAction(auditCtx, rec); err != nil {
		metrics.AuditFailures.Inc()
		s.logger.Warn().Err(err).Int64("user_id", rec.TargetID).Msg("audit write failed")
	}
}

// InvalidateUser drops the cached candidates of a user.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.ClearUserCache(ctx, userID); err != nil {
		return fmt.Errorf("clear cache for user %d: %w", userID, err)
	}
	return nil
}

// Health pings the database and, when enabled, the cache. The map holds one
// entry per dependency, "ok" or the error text.
func (s *Service) Health(ctx context.Context) (map[string]string, bool) {
	checks := map[string]string{"postgres": "ok"}
	healthy := true

	if err := s.store.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}
	if s.cache != nil {
		checks["redis"] = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}
	return checks, healthy
}

// Handle response error
func categorizeError(err error) (string, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "request_timeout", "request timed out"
	}
	if errors.Is(err, domain.ErrDataUnavailable) {
		return "data_unavailable", "data store is temporarily unavailable"
	}
	return "internal_error", "an unexpected error occurred"
}
