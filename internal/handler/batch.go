package handler

import (
	"fmt"
	"net/http"
	"strconv"
)

// GET /recommendations/batch
func (h *Handler) GetBatchRecommendations(w http.ResponseWriter, r *http.Request) {
	// Parse and validate users; 0 selects the service default
	users := 0
	if usersStr := r.URL.Query().Get("users"); usersStr != "" {
		parsed, err := strconv.Atoi(usersStr)
		if err != nil || parsed < 1 || parsed > h.service.MaxBatchUsers() {
			writeError(w, http.StatusBadRequest, "invalid_parameter",
				fmt.Sprintf("users must be between 1 and %d", h.service.MaxBatchUsers()))
			return
		}
		users = parsed
	}

	// Parse and validate limit
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

	result, err := h.service.GetBatchRecommendations(r.Context(), users, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
