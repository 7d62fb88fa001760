package handlers

import (
	"net/http"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api/middleware"
)

// Stats returns message-level analytics: totals, the top senders and the
// timestamp range. An empty store yields zero counts and null timestamps.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		middleware.AnnotateError(r.Context(), err)
		h.Error(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	h.JSON(w, http.StatusOK, stats)
}
