// Package metrics declares the Prometheus collectors of the recommendation
// service. Collectors register with the default registry on import and are
// served by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationRequests counts recommendation requests by outcome
	// (success, empty, error).
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// RecommendationDuration tracks end-to-end recommendation latency.
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation generation in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"cache_hit"},
	)

	ScorerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_scorer_duration_seconds",
			Help:    "Duration of a single scorer run in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"scorer"},
	)

	ScorerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_scorer_failures_total",
			Help: "Scorer runs that failed and contributed no candidates",
		},
		[]string{"scorer"},
	)

	ScorerCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_scorer_candidates",
			Help:    "Number of candidates produced by a scorer run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 50},
		},
		[]string{"scorer"},
	)

	// CacheRequests counts candidate cache lookups by result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_requests_total",
			Help: "Candidate cache lookups by result",
		},
		[]string{"result"},
	)

	// OracleBreakerState is 0 closed, 1 half-open, 2 open.
	OracleBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_circuit_breaker_state",
			Help: "Relevance oracle circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Relevance oracle calls by result",
		},
		[]string{"result"},
	)

	AuditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_audit_failures_total",
			Help: "Audit records that could not be written",
		},
	)

	BatchUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_batch_users_total",
			Help: "Users processed by batch generation by status",
		},
		[]string{"status"},
	)
)
