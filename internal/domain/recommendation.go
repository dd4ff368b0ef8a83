package domain

import "time"

// Recommendation is one ranked product in a response.
type Recommendation struct {
	ProductID           int64    `json:"product_id"`
	Name                string   `json:"name"`
	Price               float64  `json:"price"`
	Category            string   `json:"category"`
	// RecommendationScore is the weighted combined score at full float
	// precision. It is never rounded; clients format it for display.
	RecommendationScore float64  `json:"recommendation_score"`
	StockQuantity       int      `json:"stock_quantity"`
	IsFeatured          bool     `json:"is_featured"`
	Images              []string `json:"images"`
}

type RecommendationMeta struct {
	RequestID      string   `json:"request_id"`
	CacheHit       bool     `json:"cache_hit"`
	GeneratedAt    string   `json:"generated_at"`
	TotalCount     int      `json:"total_count"`
	AlgorithmsUsed []Source `json:"algorithms_used"`
}

type RecommendationResult struct {
	Recommendations []Recommendation
	CacheHit        bool
	RequestID       string
	AlgorithmsUsed  []Source
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchUserResult struct {
	UserID          int64            `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Status          string           `json:"status"`
	Error           string           `json:"error,omitempty"`
	Message         string           `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	BatchID     string `json:"batch_id"`
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	MaxUsers   int               `json:"max_users"`
	Limit      int               `json:"limit"`
	TotalUsers int               `json:"total_users"`
	Results    []BatchUserResult `json:"results"`
	Summary    BatchSummary      `json:"summary"`
	Metadata   BatchMeta         `json:"metadata"`
}

// AuditRecord is one row of the agent action log.
type AuditRecord struct {
	AgentName     string
	ActionType    string
	TargetID      int64
	TargetType    string
	ActionData    map[string]any
	Result        string
	ErrorMessage  string
	ExecutionTime time.Duration
}
