package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/pkg/response"
)

const readyCheckTimeout = 2 * time.Second

// isoTimestamp renders t like JavaScript's Date.toISOString.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ReadinessChecker reports whether the service can take evaluations.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checker ReadinessChecker
	now     func() time.Time
	log     zerolog.Logger
}

// NewHealthHandler creates a new health handler. A nil checker is always ready.
func NewHealthHandler(log zerolog.Logger, checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker, now: time.Now, log: log}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "Speech Evaluation Backend is running",
		"timestamp": isoTimestamp(h.now()),
	})
}

// Ready handles GET /api/ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		if err := h.checker.Ready(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Readiness check failed")
			response.Raw(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": err.Error(),
			})
			return
		}
	}

	response.Raw(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Live handles GET /api/live.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}
