package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/handler"
	"github.com/actuallystonmai/product-recommender/internal/logging"
)

const (
	defaultRequestTimeout = 30 * time.Second
	batchRateWindow       = time.Minute
)

type Options struct {
	RequestTimeout time.Duration
	// BatchRateLimit is the number of batch requests allowed per client IP per
	// minute. Zero disables the limit.
	BatchRateLimit int
}

//nolint:gocritic // zerolog.Logger is passed by value
func Setup(h *handler.Handler, opts Options, logger zerolog.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		// Routes
		r.Get("/users/{userID}/recommendations", h.GetRecommendations)
		r.Delete("/users/{userID}/recommendations/cache", h.InvalidateCache)

		r.With(batchLimiter(h, opts.BatchRateLimit)).
			Get("/recommendations/batch", h.GetBatchRecommendations)

		r.Route("/insights", func(r chi.Router) {
			r.Get("/cross-sell", h.GetCrossSell)
			r.Get("/trending", h.GetTrending)
			r.Get("/category-affinity", h.GetCategoryAffinity)
			r.Get("/order-volume", h.GetOrderVolume)
		})
	})

	return r
}

func batchLimiter(h *handler.Handler, requests int) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requests,
		batchRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(h.RateLimited),
	)
}
