package recommend

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// BuildProfile assembles the behavior snapshot for userID. A user without any
// history yields an empty snapshot. Store failures wrap domain.ErrDataUnavailable.
func BuildProfile(ctx context.Context, store BehaviorStore, userID int64) (*domain.BehaviorSnapshot, error) {
	purchases, err := store.Purchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load purchases for user %d: %w", domain.ErrDataUnavailable, userID, err)
	}

	cart, err := store.Cart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load cart for user %d: %w", domain.ErrDataUnavailable, userID, err)
	}

	reviews, err := store.Reviews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load reviews for user %d: %w", domain.ErrDataUnavailable, userID, err)
	}

	return &domain.BehaviorSnapshot{
		UserID:    userID,
		Purchases: purchases,
		Cart:      cart,
		Reviews:   reviews,
	}, nil
}
