// Package cache keeps each user's combined recommendation candidates in Redis
// so repeated requests can skip profile building and scoring.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const defaultTTL = 2 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache storing entries for ttl, or two minutes when ttl
// is not positive.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(userID int64) string {
	return fmt.Sprintf("rec:user:%d:candidates", userID)
}

func userPattern(userID int64) string {
	return fmt.Sprintf("rec:user:%d:*", userID)
}

// GetCandidates returns the cached combined candidates for a user. hit is
// false on a miss.
func (c *Cache) GetCandidates(ctx context.Context, userID int64) (candidates []domain.CombinedCandidate, hit bool, err error) {
	key := buildKey(userID)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get candidates %s: %w", key, err)
	}

	if err := json.Unmarshal(val, &candidates); err != nil {
		return nil, false, fmt.Errorf("unmarshal candidates %s: %w", key, err)
	}
	return candidates, true, nil
}

func (c *Cache) SetCandidates(ctx context.Context, userID int64, candidates []domain.CombinedCandidate) error {
	key := buildKey(userID)
	if candidates == nil {
		candidates = []domain.CombinedCandidate{}
	}
	val, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set candidates %s: %w", key, err)
	}
	return nil
}

// ClearUserCache drops every cached entry of a user: used when purchases,
// cart or stock change
func (c *Cache) ClearUserCache(ctx context.Context, userID int64) error {
	iter := c.client.Scan(ctx, 0, userPattern(userID), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
