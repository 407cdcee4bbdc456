package handlers

import (
	"net/http"
	"time"

	"linecue-backend/internal/middleware"
	"linecue-backend/internal/services"
)

type DashboardHandler struct {
	progress *services.ProgressService
}

func NewDashboardHandler(progress *services.ProgressService) *DashboardHandler {
	return &DashboardHandler{progress: progress}
}

// Stats returns the global rehearsal aggregates, recomputed on every call.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.progress.GlobalStats(r.Context(), userID, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to compute stats", r))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
