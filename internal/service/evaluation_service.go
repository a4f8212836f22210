package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
	"github.com/windfall/kidspeech_service/internal/repository"
)

const (
	// EventEvaluationCompleted is published after every successful evaluation.
	EventEvaluationCompleted = "evaluation.completed"

	defaultSideEffectTimeout = 5 * time.Second
)

// Recognizer runs one pronunciation assessment.
type Recognizer interface {
	Invoke(ctx context.Context, input *audio.Input, cfg assessment.Config, creds assessment.Credentials) (*assessment.EvaluationResult, error)
}

// Archiver stores raw recordings and returns a locator.
type Archiver interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// EventPublisher publishes evaluation events.
type EventPublisher interface {
	PublishWithAttributes(ctx context.Context, data interface{}, attrs map[string]string) error
}

// EvaluationMetrics records pipeline metrics.
type EvaluationMetrics interface {
	IncWordFallback()
	ObserveUpload(kind string, size int64)
	IncSideEffectFailure(effect string)
}

// EvaluateInput is one uploaded recording.
type EvaluateInput struct {
	Audio         []byte
	MimeType      string
	Size          int64
	ReferenceText string
	LearnerID     string
}

// EvaluateOutput is the evaluation plus the identifiers of what was recorded.
type EvaluateOutput struct {
	Result    *assessment.EvaluationResult
	AttemptID string
	AudioURL  string
}

// EvaluationEvent is the payload of an evaluation.completed message.
type EvaluationEvent struct {
	Type              string    `json:"type"`
	AttemptID         string    `json:"attemptId,omitempty"`
	LearnerID         string    `json:"learnerId,omitempty"`
	ReferenceText     string    `json:"referenceText"`
	RecognizedText    string    `json:"recognizedText"`
	AccuracyScore     int       `json:"accuracyScore"`
	FluencyScore      int       `json:"fluencyScore"`
	CompletenessScore int       `json:"completenessScore"`
	ProsodyScore      int       `json:"prosodyScore"`
	WordSource        string    `json:"wordSource"`
	AudioType         string    `json:"audioType"`
	AudioSize         int64     `json:"audioSize"`
	AudioURL          string    `json:"audioUrl,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// EvaluationService runs the assessment pipeline for one upload and the
// best-effort side effects after a successful result.
type EvaluationService struct {
	resolver          *audio.Resolver
	recognizer        Recognizer
	creds             assessment.Credentials
	language          string
	attempts          repository.AttemptRepository
	archive           Archiver
	events            EventPublisher
	metrics           EvaluationMetrics
	sideEffectTimeout time.Duration
	now               func() time.Time
	log               zerolog.Logger
}

// EvaluationOption configures an EvaluationService.
type EvaluationOption func(*EvaluationService)

// WithAttempts records attempts of identified learners.
func WithAttempts(repo repository.AttemptRepository) EvaluationOption {
	return func(s *EvaluationService) {
		s.attempts = repo
	}
}

// WithArchive stores every accepted recording.
func WithArchive(a Archiver) EvaluationOption {
	return func(s *EvaluationService) {
		s.archive = a
	}
}

// WithEvents publishes an event per successful evaluation.
func WithEvents(p EventPublisher) EvaluationOption {
	return func(s *EvaluationService) {
		s.events = p
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m EvaluationMetrics) EvaluationOption {
	return func(s *EvaluationService) {
		s.metrics = m
	}
}

// WithSideEffectTimeout bounds each side effect.
func WithSideEffectTimeout(d time.Duration) EvaluationOption {
	return func(s *EvaluationService) {
		s.sideEffectTimeout = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EvaluationOption {
	return func(s *EvaluationService) {
		s.now = now
	}
}

// NewEvaluationService creates a new Evaluation service.
func NewEvaluationService(
	resolver *audio.Resolver,
	recognizer Recognizer,
	creds assessment.Credentials,
	language string,
	log zerolog.Logger,
	opts ...EvaluationOption,
) *EvaluationService {
	s := &EvaluationService{
		resolver:          resolver,
		recognizer:        recognizer,
		creds:             creds,
		language:          language,
		sideEffectTimeout: defaultSideEffectTimeout,
		now:               time.Now,
		log:               log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate validates credentials, resolves the audio, runs the assessment and
// records the attempt. Side-effect failures are logged and never fail the call.
func (s *EvaluationService) Evaluate(ctx context.Context, in EvaluateInput) (*EvaluateOutput, error) {
	if err := assessment.ValidateCredentials(s.creds); err != nil {
		return nil, err
	}

	input, err := s.resolver.Resolve(in.Audio, in.MimeType)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveUpload(input.Kind.String(), in.Size)
	}

	cfg := assessment.NewConfig(in.ReferenceText, s.language)
	result, err := s.recognizer.Invoke(ctx, input, cfg, s.creds)
	if err != nil {
		return nil, err
	}

	if result.WordSource == assessment.WordSourceFallback {
		s.log.Info().Str("reference_text", in.ReferenceText).Msg("Word breakdown synthesized from reference text")
		if s.metrics != nil {
			s.metrics.IncWordFallback()
		}
	}

	out := &EvaluateOutput{Result: result}
	s.afterEvaluation(ctx, in, out)
	return out, nil
}

func (s *EvaluationService) afterEvaluation(ctx context.Context, in EvaluateInput, out *EvaluateOutput) {
	ctx = context.WithoutCancel(ctx)
	now := s.now().UTC()

	if s.archive != nil {
		key := archiveKey(now, in.MimeType)
		s.bounded(ctx, "archive", func(ctx context.Context) error {
			url, err := s.archive.Upload(ctx, key, in.Audio, in.MimeType)
			if err != nil {
				return err
			}
			out.AudioURL = url
			return nil
		})
	}

	if s.attempts != nil && in.LearnerID != "" {
		attempt := &repository.Attempt{
			ID:                uuid.New(),
			LearnerID:         in.LearnerID,
			ReferenceText:     in.ReferenceText,
			RecognizedText:    out.Result.RecognizedText,
			AccuracyScore:     out.Result.AccuracyScore,
			FluencyScore:      out.Result.FluencyScore,
			CompletenessScore: out.Result.CompletenessScore,
			ProsodyScore:      out.Result.ProsodyScore,
			WordSource:        string(out.Result.WordSource),
			AudioType:         in.MimeType,
			AudioSize:         in.Size,
			AudioURL:          out.AudioURL,
			CreatedAt:         now,
		}
		s.bounded(ctx, "history", func(ctx context.Context) error {
			if err := s.attempts.Create(ctx, attempt); err != nil {
				return err
			}
			out.AttemptID = attempt.ID.String()
			return nil
		})
	}

	if s.events != nil {
		event := EvaluationEvent{
			Type:              EventEvaluationCompleted,
			AttemptID:         out.AttemptID,
			LearnerID:         in.LearnerID,
			ReferenceText:     in.ReferenceText,
			RecognizedText:    out.Result.RecognizedText,
			AccuracyScore:     out.Result.AccuracyScore,
			FluencyScore:      out.Result.FluencyScore,
			CompletenessScore: out.Result.CompletenessScore,
			ProsodyScore:      out.Result.ProsodyScore,
			WordSource:        string(out.Result.WordSource),
			AudioType:         in.MimeType,
			AudioSize:         in.Size,
			AudioURL:          out.AudioURL,
			OccurredAt:        now,
		}
		attrs := map[string]string{
			"event_type":  EventEvaluationCompleted,
			"word_source": string(out.Result.WordSource),
		}
		s.bounded(ctx, "events", func(ctx context.Context) error {
			return s.events.PublishWithAttributes(ctx, event, attrs)
		})
	}
}

func (s *EvaluationService) bounded(ctx context.Context, effect string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.sideEffectTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.log.Warn().Err(err).Str("effect", effect).Msg("Side effect failed")
		if s.metrics != nil {
			s.metrics.IncSideEffectFailure(effect)
		}
	}
}

// archiveKey is recordings/YYYY/MM/DD/<uuid><ext>.
func archiveKey(t time.Time, mimeType string) string {
	return fmt.Sprintf("recordings/%s/%s%s", t.Format("2006/01/02"), uuid.NewString(), audio.Extension(mimeType))
}

// Attempts lists a learner's recent attempts.
func (s *EvaluationService) Attempts(ctx context.Context, learnerID string, limit int) ([]*repository.Attempt, error) {
	if s.attempts == nil {
		return nil, repository.ErrNotConfigured
	}
	if learnerID == "" {
		return nil, repository.ErrInvalidLearner
	}
	return s.attempts.ListByLearner(ctx, learnerID, limit)
}

// Ready reports whether evaluations can succeed: credentials are present and
// the history backend, if any, answers.
func (s *EvaluationService) Ready(ctx context.Context) error {
	if err := assessment.ValidateCredentials(s.creds); err != nil {
		return err
	}
	if s.attempts != nil {
		if err := s.attempts.Ping(ctx); err != nil {
			return fmt.Errorf("attempt history unavailable: %w", err)
		}
	}
	return nil
}
