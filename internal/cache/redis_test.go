package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/product-recommender/internal/service"
)

var _ service.CandidateCache = (*Cache)(nil)

func TestKeys(t *testing.T) {
	assert.Equal(t, "rec:user:42:candidates", buildKey(42))
	assert.Equal(t, "rec:user:42:*", userPattern(42))
}

func TestNewCache_DefaultTTL(t *testing.T) {
	c := NewCache(nil, 0)
	assert.Equal(t, defaultTTL, c.ttl)

	c = NewCache(nil, 30*time.Second)
	assert.Equal(t, 30*time.Second, c.ttl)
}

func TestGetCandidates_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewCache(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, hit, err := c.GetCandidates(ctx, 1)
	require.Error(t, err)
	assert.False(t, hit)
	assert.Nil(t, got)
	assert.Error(t, c.Ping(ctx))
}
