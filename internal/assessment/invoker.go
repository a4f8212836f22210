package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/audio"
	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

// OutcomeError is the observer label for calls that produced no outcome.
// Other labels are Reason.String values.
const OutcomeError = "error"

// Observer receives the outcome label and duration of every engine call.
type Observer func(outcome string, elapsed time.Duration)

// Invoker owns the single engine call of a request.
type Invoker struct {
	engine     Engine
	normalizer *Normalizer
	timeout    time.Duration
	observer   Observer
	log        zerolog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithTimeout bounds the engine call. Zero means no timeout.
func WithTimeout(d time.Duration) InvokerOption {
	return func(iv *Invoker) {
		iv.timeout = d
	}
}

// WithObserver registers a callback for engine call metrics.
func WithObserver(o Observer) InvokerOption {
	return func(iv *Invoker) {
		iv.observer = o
	}
}

// NewInvoker creates an Invoker.
func NewInvoker(engine Engine, normalizer *Normalizer, log zerolog.Logger, opts ...InvokerOption) *Invoker {
	iv := &Invoker{
		engine:     engine,
		normalizer: normalizer,
		log:        log,
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

// Invoke validates credentials, runs exactly one recognition and normalizes
// the outcome. It never retries.
func (iv *Invoker) Invoke(ctx context.Context, input *audio.Input, cfg Config, creds Credentials) (*EvaluationResult, error) {
	if err := ValidateCredentials(creds); err != nil {
		return nil, err
	}

	if iv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, iv.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := iv.recognize(ctx, input, cfg, creds)
	elapsed := time.Since(start)

	if err != nil {
		iv.observe(OutcomeError, elapsed)
		iv.log.Error().Err(err).Dur("elapsed", elapsed).Msg("Speech recognition error")
		return nil, apperrors.Recognition(fmt.Sprintf("Speech recognition error: %v", err), err)
	}
	iv.observe(outcome.Reason.String(), elapsed)

	switch outcome.Reason {
	case ReasonRecognized:
		iv.log.Info().
			Str("text", outcome.Text).
			Dur("elapsed", elapsed).
			Msg("Speech recognized")
		return iv.normalizer.Result(outcome, cfg.ReferenceText)
	case ReasonNoMatch:
		iv.log.Info().Dur("elapsed", elapsed).Msg("No speech recognized")
		return nil, apperrors.NoMatch("No speech could be recognized from the audio")
	default:
		iv.log.Warn().Str("detail", outcome.ErrorDetail).Msg("Speech recognition canceled")
		return nil, apperrors.Recognition(fmt.Sprintf("Speech recognition failed: %s", outcome.ErrorDetail), nil)
	}
}

// recognize holds the session for exactly one recognition and releases it on
// every exit path, including panics.
func (iv *Invoker) recognize(ctx context.Context, input *audio.Input, cfg Config, creds Credentials) (*Outcome, error) {
	session, err := iv.engine.NewSession(ctx, input, cfg, creds)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			iv.log.Warn().Err(cerr).Msg("Failed to close recognition session")
		}
	}()

	outcome, err := session.RecognizeOnce(ctx)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, fmt.Errorf("engine returned no outcome")
	}
	return outcome, nil
}

func (iv *Invoker) observe(outcome string, elapsed time.Duration) {
	if iv.observer != nil {
		iv.observer(outcome, elapsed)
	}
}
