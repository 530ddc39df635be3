package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/snapback/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:           "running",
		Engine:           h.engine,
		Entities:         stats.Entities,
		PendingSnapshots: stats.PendingSnapshots,
		UptimeSeconds:    int64(time.Since(h.started).Seconds()),
		Build:            buildinfo.Get(),
	})
}
