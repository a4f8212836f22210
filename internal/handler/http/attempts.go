package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/repository"
	"github.com/windfall/kidspeech_service/pkg/response"
)

const defaultAttemptsLimit = 10

// AttemptLister lists a learner's attempts.
type AttemptLister interface {
	Attempts(ctx context.Context, learnerID string, limit int) ([]*repository.Attempt, error)
}

// AttemptHandler handles attempt history endpoints.
type AttemptHandler struct {
	log      zerolog.Logger
	lister   AttemptLister
	maxLimit int
}

// NewAttemptHandler creates a new AttemptHandler. maxLimit caps the limit query parameter.
func NewAttemptHandler(log zerolog.Logger, lister AttemptLister, maxLimit int) *AttemptHandler {
	return &AttemptHandler{log: log, lister: lister, maxLimit: maxLimit}
}

// List handles GET /api/attempts?learnerId=&limit=
func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	learnerID := strings.TrimSpace(r.URL.Query().Get("learnerId"))
	if learnerID == "" {
		response.BadRequest(w, "learnerId is required")
		return
	}

	limit := defaultAttemptsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if h.maxLimit > 0 && limit > h.maxLimit {
		limit = h.maxLimit
	}

	attempts, err := h.lister.Attempts(r.Context(), learnerID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotConfigured) {
			response.ServiceUnavailable(w, "Attempt history is not enabled")
			return
		}
		h.log.Error().Err(err).Str("learner_id", learnerID).Msg("Failed to list attempts")
		response.ServerError(w)
		return
	}

	if attempts == nil {
		attempts = []*repository.Attempt{}
	}
	response.JSONWithMeta(w, http.StatusOK, attempts, &response.Meta{Total: len(attempts), Limit: limit})
}
