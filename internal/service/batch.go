package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
)

// GetBatchRecommendations generates recommendations for up to maxUsers users
// who ordered within the active window. Per-user failures are reported in the
// results; only failing to select the users fails the batch.
func (s *Service) GetBatchRecommendations(ctx context.Context, maxUsers, limit int) (*domain.BatchResponse, error) {
	start := time.Now()
	if maxUsers <= 0 || maxUsers > s.opts.BatchMaxUsers {
		maxUsers = s.opts.BatchMaxUsers
	}
	if limit <= 0 {
		limit = s.opts.BatchLimit
	} else if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	since := s.opts.Now().Add(-s.opts.ActiveWindow)
	userIDs, err := s.store.RecentlyActiveUsers(ctx, since, maxUsers)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch active users: %w", domain.ErrDataUnavailable, err)
	}

	// Process users concurrently with a bounded worker pool
	results := make([]domain.BatchUserResult, len(userIDs))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			results[i] = s.processUserForBatch(ctx, userID, limit)
			return nil
		})
	}
	_ = g.Wait()

	// summary
	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}
	metrics.BatchUsers.WithLabelValues(domain.StatusSuccess).Add(float64(successCount))
	metrics.BatchUsers.WithLabelValues(domain.StatusFailed).Add(float64(failedCount))

	elapsed := time.Since(start).Milliseconds()
	s.logger.Info().
		Int("users", len(userIDs)).
		Int("failed", failedCount).
		Int64("elapsed_ms", elapsed).
		Msg("batch recommendations complete")

	return &domain.BatchResponse{
		MaxUsers:   maxUsers,
		Limit:      limit,
		TotalUsers: len(userIDs),
		Results:    results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: elapsed,
		},
		Metadata: domain.BatchMeta{
			BatchID:     uuid.NewString(),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Generates recommendations for a single user, capturing errors.
func (s *Service) processUserForBatch(ctx context.Context, userID int64, limit int) domain.BatchUserResult {
	result, err := s.GetRecommendations(ctx, userID, limit)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("batch: recommendation failed")
		code, msg := categorizeError(err)
		return domain.BatchUserResult{
			UserID:  userID,
			Status:  domain.StatusFailed,
			Error:   code,
			Message: msg,
		}
	}

	return domain.BatchUserResult{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Status:          domain.StatusSuccess,
	}
}
