package handler

import "net/http"

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks, healthy := h.service.Health(r.Context())
	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}
