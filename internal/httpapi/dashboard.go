package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vk/closegraph/internal/views"
)

// dashboardStats serves the full aggregate payload for one period. The
// snapshot is taken once, so counts and lists in a single response can
// never disagree with each other.
func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil {
		badRequest(w, "period_id query parameter is required")
		return
	}

	snap, err := h.store.SnapshotPeriod(r.Context(), periodID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views.Dashboard(snap, time.Now().UTC()))
}
