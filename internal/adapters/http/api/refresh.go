package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/consolidator/internal/adapters/mq/queue"
)

type refreshResponse struct {
	Status      string    `json:"status"`
	TriggerID   string    `json:"trigger_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// HandleRefresh handles POST /refresh. The refresh runs asynchronously; a
// full trigger queue is reported as backpressure.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, err := s.refresh.RequestRefresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, refreshResponse{
			Status:      "accepted",
			TriggerID:   t.ID,
			RequestedAt: t.RequestedAt,
		})
	case errors.Is(err, queue.ErrFull):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "backpressure", newKind(op, ErrBackpressure))
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", newKind(op, ErrShuttingDown))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
