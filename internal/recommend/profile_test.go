package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/memstore"
)

func TestBuildProfile(t *testing.T) {
	s := memstore.New()
	s.AddUser(domain.User{ID: 1})
	s.AddOrder(order(1, 1, baseTime, 10))
	s.AddOrder(order(2, 1, baseTime.Add(time.Hour), 11, 12))
	cancelled := order(3, 1, baseTime.Add(2*time.Hour), 13)
	cancelled.Status = "cancelled"
	s.AddOrder(cancelled)
	pending := order(4, 1, baseTime.Add(3*time.Hour), 14)
	pending.Status = "pending"
	s.AddOrder(pending)
	s.AddOrder(order(5, 2, baseTime, 15))
	s.AddCartItem(1, domain.CartSignal{ProductID: 16, Quantity: 2, AddedAt: baseTime})
	s.AddReview(1, domain.ReviewSignal{ProductID: 10, Rating: 4, CreatedAt: baseTime})
	s.AddReview(1, domain.ReviewSignal{ProductID: 11, Rating: 5, CreatedAt: baseTime.Add(time.Hour)})

	snap, err := BuildProfile(context.Background(), s, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), snap.UserID)
	require.Len(t, snap.Purchases, 3)
	assert.Equal(t, int64(2), snap.Purchases[0].OrderID, "most recent order first")
	assert.Equal(t, []int64{10, 11, 12}, snap.PurchasedIDs())
	assert.Equal(t, []int64{10, 11, 12, 16}, snap.InteractedIDs())
	require.Len(t, snap.Reviews, 2)
	assert.Equal(t, int64(11), snap.Reviews[0].ProductID)
	assert.False(t, snap.Empty())
}

func TestBuildProfile_NoHistory(t *testing.T) {
	s := memstore.New()
	s.AddUser(domain.User{ID: 1})

	snap, err := BuildProfile(context.Background(), s, 1)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Zero(t, snap.AverageSpend())
}

func TestBuildProfile_StoreFailure(t *testing.T) {
	cause := errors.New("pool exhausted")
	s := memstore.New()
	s.FailOn("Cart", cause)

	_, err := BuildProfile(context.Background(), s, 1)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.ErrorIs(t, err, cause)
}
