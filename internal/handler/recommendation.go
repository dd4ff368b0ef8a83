package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// GET /users/{userID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	// Parse and validate limit; 0 selects the service default
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > h.service.MaxLimit() {
			writeError(w, http.StatusBadRequest, "invalid_parameter",
				fmt.Sprintf("limit must be between 1 and %d", h.service.MaxLimit()))
			return
		}
		limit = parsed
	}

	result, err := h.service.GetRecommendations(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := RecommendationResponse{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Metadata: domain.RecommendationMeta{
			RequestID:      result.RequestID,
			CacheHit:       result.CacheHit,
			GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
			TotalCount:     len(result.Recommendations),
			AlgorithmsUsed: result.AlgorithmsUsed,
		},
	}

	writeJSON(w, http.StatusOK, resp)
}

// DELETE /users/{userID}/recommendations/cache
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.InvalidateUser(r.Context(), userID); err != nil {
		h.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
		writeError(w, http.StatusServiceUnavailable, "cache_unavailable",
			"Recommendation cache is temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return 0, false
	}
	return userID, true
}
