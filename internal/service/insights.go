package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const (
	day = 24 * time.Hour

	crossSellWindow       = 90 * day
	crossSellMinFrequency = 3
	crossSellLimit        = 50
	// a pair seen this many times gets full confidence
	crossSellFullConfidence = 10.0

	trendingWindow   = 7 * day
	trendingMinSales = 2
	trendingLimit    = 20

	affinityWindow         = 90 * day
	affinityMinCoPurchases = 5
	affinityLimit          = 20

	orderVolumeDays = 30
)

// CrossSell lists products frequently bought together in the last 90 days.
func (s *Service) CrossSell(ctx context.Context) ([]domain.CrossSellPair, error) {
	since := s.opts.Now().Add(-crossSellWindow)
	pairs, err := s.store.CrossSellPairs(ctx, since, crossSellMinFrequency, crossSellLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: cross-sell pairs: %w", domain.ErrDataUnavailable, err)
	}

	for i := range pairs {
		pairs[i].Confidence = math.Min(float64(pairs[i].Frequency)/crossSellFullConfidence, 1)
	}
	return nonNil(pairs), nil
}

// Trending lists products with the most sales in the last seven days.
func (s *Service) Trending(ctx context.Context) ([]domain.TrendingProduct, error) {
	since := s.opts.Now().Add(-trendingWindow)
	products, err := s.store.TrendingProducts(ctx, since, trendingMinSales, trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: trending products: %w", domain.ErrDataUnavailable, err)
	}

	for i := range products {
		products[i].TrendScore = float64(products[i].RecentSales * max(products[i].TotalQuantity, 1))
	}
	return nonNil(products), nil
}

// CategoryAffinity lists category pairs often bought together in the last 90 days.
func (s *Service) CategoryAffinity(ctx context.Context) ([]domain.CategoryAffinity, error) {
	since := s.opts.Now().Add(-affinityWindow)
	affinities, err := s.store.CategoryAffinity(ctx, since, affinityMinCoPurchases, affinityLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: category affinity: %w", domain.ErrDataUnavailable, err)
	}
	return nonNil(affinities), nil
}

// OrderVolume reports purchased order count and average order value over the
// last 30 days.
func (s *Service) OrderVolume(ctx context.Context) (domain.OrderVolume, error) {
	since := s.opts.Now().Add(-orderVolumeDays * day)
	v, err := s.store.OrderVolume(ctx, since)
	if err != nil {
		return domain.OrderVolume{}, fmt.Errorf("%w: order volume: %w", domain.ErrDataUnavailable, err)
	}
	v.WindowDays = orderVolumeDays
	return v, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
