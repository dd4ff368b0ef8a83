package domain

import (
	"slices"
	"time"
)

type PurchaseEvent struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"price"`
	OrderID   int64     `json:"order_id"`
	OrderedAt time.Time `json:"order_date"`
}

type CartSignal struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

type ReviewSignal struct {
	ProductID      int64     `json:"product_id"`
	Rating         int       `json:"rating"`
	SentimentScore float64   `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// BehaviorSnapshot is a point-in-time bundle of one user's purchase, cart and
// review signals. Purchases and reviews are ordered most recent first.
type BehaviorSnapshot struct {
	UserID    int64
	Purchases []PurchaseEvent
	Cart      []CartSignal
	Reviews   []ReviewSignal
}

// Empty reports whether the user has no recorded behavior at all.
func (s *BehaviorSnapshot) Empty() bool {
	return len(s.Purchases) == 0 && len(s.Cart) == 0 && len(s.Reviews) == 0
}

// PurchasedIDs returns the distinct purchased product ids in ascending order.
func (s *BehaviorSnapshot) PurchasedIDs() []int64 {
	ids := make([]int64, 0, len(s.Purchases))
	for _, p := range s.Purchases {
		ids = append(ids, p.ProductID)
	}
	return uniqueSorted(ids)
}

// InteractedIDs returns the distinct purchased and carted product ids in ascending order.
func (s *BehaviorSnapshot) InteractedIDs() []int64 {
	ids := make([]int64, 0, len(s.Purchases)+len(s.Cart))
	for _, p := range s.Purchases {
		ids = append(ids, p.ProductID)
	}
	for _, c := range s.Cart {
		ids = append(ids, c.ProductID)
	}
	return uniqueSorted(ids)
}

// AverageSpend is the mean unit price over purchase events, 0 without purchases.
func (s *BehaviorSnapshot) AverageSpend() float64 {
	if len(s.Purchases) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range s.Purchases {
		total += p.UnitPrice
	}
	return total / float64(len(s.Purchases))
}

// RecentPurchases returns at most n purchases, most recent first.
func (s *BehaviorSnapshot) RecentPurchases(n int) []PurchaseEvent {
	return s.Purchases[:min(n, len(s.Purchases))]
}

// RecentReviews returns at most n reviews, most recent first.
func (s *BehaviorSnapshot) RecentReviews(n int) []ReviewSignal {
	return s.Reviews[:min(n, len(s.Reviews))]
}

func uniqueSorted(ids []int64) []int64 {
	slices.Sort(ids)
	return slices.Compact(ids)
}
