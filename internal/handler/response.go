package handler

import "github.com/actuallystonmai/product-recommender/internal/domain"

type RecommendationResponse struct {
	UserID          int64                     `json:"user_id"`
	Recommendations []domain.Recommendation   `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type InsightResponse[T any] struct {
	Items       []T    `json:"items"`
	TotalCount  int    `json:"total_count"`
	GeneratedAt string `json:"generated_at"`
}

type OrderVolumeResponse struct {
	domain.OrderVolume
	GeneratedAt string `json:"generated_at"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
