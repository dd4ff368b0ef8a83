package handler

import (
	"context"
	"net/http"
	"time"
)

// GET /insights/cross-sell
func (h *Handler) GetCrossSell(w http.ResponseWriter, r *http.Request) {
	writeInsight(h, w, r, h.service.CrossSell)
}

// GET /insights/trending
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	writeInsight(h, w, r, h.service.Trending)
}

// GET /insights/category-affinity
func (h *Handler) GetCategoryAffinity(w http.ResponseWriter, r *http.Request) {
	writeInsight(h, w, r, h.service.CategoryAffinity)
}

// GET /insights/order-volume
func (h *Handler) GetOrderVolume(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.OrderVolume(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderVolumeResponse{
		OrderVolume: v,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeInsight[T any](h *Handler, w http.ResponseWriter, r *http.Request, load func(context.Context) ([]T, error)) {
	items, err := load(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InsightResponse[T]{
		Items:       items,
		TotalCount:  len(items),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
