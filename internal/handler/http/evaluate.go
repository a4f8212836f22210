package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
	apperrors "github.com/windfall/kidspeech_service/internal/errors"
	"github.com/windfall/kidspeech_service/internal/service"
	"github.com/windfall/kidspeech_service/pkg/response"
)

const (
	// multipartSlack covers multipart boundaries and the text fields.
	multipartSlack = 64 << 10
	// maxFormMemory is kept in memory before multipart parts spill to disk.
	maxFormMemory = 8 << 20
)

// Evaluator runs the evaluation pipeline for one upload.
type Evaluator interface {
	Evaluate(ctx context.Context, in service.EvaluateInput) (*service.EvaluateOutput, error)
}

// EvaluateOptions configures the evaluate endpoint.
type EvaluateOptions struct {
	MaxUploadBytes       int64
	DefaultReferenceText string
	// Development exposes error details in processing error bodies.
	Development bool
}

// EvaluateHandler handles POST /api/evaluate.
type EvaluateHandler struct {
	log       zerolog.Logger
	evaluator Evaluator
	opts      EvaluateOptions
	now       func() time.Time
}

// NewEvaluateHandler creates a new EvaluateHandler.
func NewEvaluateHandler(log zerolog.Logger, evaluator Evaluator, opts EvaluateOptions) *EvaluateHandler {
	return &EvaluateHandler{
		log:       log,
		evaluator: evaluator,
		opts:      opts,
		now:       time.Now,
	}
}

type evaluateResponse struct {
	Success  bool                         `json:"success"`
	Result   *assessment.EvaluationResult `json:"result"`
	Metadata evaluateMetadata             `json:"metadata"`
}

type evaluateMetadata struct {
	AudioSize     int64  `json:"audioSize"`
	AudioType     string `json:"audioType"`
	ReferenceText string `json:"referenceText"`
	Timestamp     string `json:"timestamp"`
	AttemptID     string `json:"attemptId,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty"`
}

// Evaluate handles POST /api/evaluate
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+multipartSlack)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if isTooLarge(err) {
			h.writeError(w, apperrors.FileTooLarge("upload exceeds limit"))
			return
		}
		h.log.Debug().Err(err).Msg("Invalid multipart body")
		h.writeError(w, apperrors.Validation("no audio file provided"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.writeError(w, apperrors.Validation("no audio file provided"))
		return
	}
	defer file.Close()

	if header.Size > h.opts.MaxUploadBytes {
		h.writeError(w, apperrors.FileTooLarge("upload exceeds limit"))
		return
	}

	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if !audio.IsAudioMIME(mimeType) {
		h.writeError(w, apperrors.InvalidFileType(fmt.Sprintf("unsupported type %q", mimeType)))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		h.writeError(w, apperrors.InternalWrap("failed to read upload", err))
		return
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		h.writeError(w, apperrors.FileTooLarge("upload exceeds limit"))
		return
	}

	referenceText := strings.TrimSpace(r.FormValue("referenceText"))
	if referenceText == "" {
		referenceText = h.opts.DefaultReferenceText
	}

	h.log.Info().
		Str("reference_text", referenceText).
		Int64("audio_size", header.Size).
		Str("audio_type", mimeType).
		Msg("Received evaluation request")

	out, err := h.evaluator.Evaluate(r.Context(), service.EvaluateInput{
		Audio:         data,
		MimeType:      mimeType,
		Size:          header.Size,
		ReferenceText: referenceText,
		LearnerID:     strings.TrimSpace(r.FormValue("learnerId")),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Raw(w, http.StatusOK, evaluateResponse{
		Success: true,
		Result:  out.Result,
		Metadata: evaluateMetadata{
			AudioSize:     header.Size,
			AudioType:     mimeType,
			ReferenceText: referenceText,
			Timestamp:     isoTimestamp(h.now()),
			AttemptID:     out.AttemptID,
			AudioURL:      out.AudioURL,
		},
	})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// writeError maps a pipeline error to exactly one response by its code.
func (h *EvaluateHandler) writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		h.log.Error().Err(err).Msg("Unexpected evaluation error")
		response.ServerError(w)
		return
	}

	switch appErr.Code {
	case apperrors.ErrValidation:
		response.Error(w, http.StatusBadRequest, &response.ErrorBody{
			Error:   "No audio file provided",
			Message: "Please upload an audio file",
		})
	case apperrors.ErrFileTooLarge:
		response.Error(w, http.StatusBadRequest, &response.ErrorBody{
			Error:   "File Too Large",
			Message: fmt.Sprintf("Audio file must be smaller than %dMB", h.opts.MaxUploadBytes>>20),
		})
	case apperrors.ErrInvalidFileType:
		response.Error(w, http.StatusBadRequest, &response.ErrorBody{
			Error:   "Invalid File Type",
			Message: "Only audio files are allowed",
		})
	case apperrors.ErrConfiguration:
		h.log.Error().Err(err).Msg("Azure Speech Service is not configured")
		response.Error(w, http.StatusInternalServerError, &response.ErrorBody{
			Error:   "Configuration Error",
			Message: "Azure Speech Service is not properly configured",
			Details: appErr.Message,
		})
	case apperrors.ErrNoMatch:
		response.Error(w, http.StatusBadRequest, &response.ErrorBody{
			Error:   "Recognition Error",
			Message: "Could not recognize speech in the audio file. Please try speaking more clearly.",
			Details: appErr.Message,
		})
	case apperrors.ErrAudioFormat, apperrors.ErrRecognition:
		h.log.Error().Err(err).Msg("Evaluation failed")
		details := "Internal server error"
		if h.opts.Development {
			details = appErr.Detail()
		}
		response.Error(w, http.StatusInternalServerError, &response.ErrorBody{
			Error:   "Processing Error",
			Message: "An error occurred while processing your audio",
			Details: details,
		})
	default:
		h.log.Error().Err(err).Msg("Unexpected evaluation error")
		response.ServerError(w)
	}
}
