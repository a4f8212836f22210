package assessment

import (
	"context"

	"github.com/windfall/kidspeech_service/internal/audio"
)

// Engine opens recognition sessions against a pronunciation-assessment backend.
type Engine interface {
	NewSession(ctx context.Context, input *audio.Input, cfg Config, creds Credentials) (Session, error)
}

// Session is one single-shot recognition bound to an audio input. A session
// is owned by one request and must be closed on every exit path.
type Session interface {
	// RecognizeOnce runs exactly one recognition. An error means the engine
	// could not be reached or did not answer; engine-side failures are
	// reported as a Canceled outcome.
	RecognizeOnce(ctx context.Context) (*Outcome, error)
	Close() error
}

// Reason classifies a recognition outcome.
type Reason int

const (
	ReasonRecognized Reason = iota + 1
	ReasonNoMatch
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonRecognized:
		return "recognized"
	case ReasonNoMatch:
		return "no_match"
	case ReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Outcome is the result of the single recognition attempt.
type Outcome struct {
	Reason Reason
	// Text is the transcription when Reason is ReasonRecognized.
	Text string
	// RawJSON is the engine's detailed JSON result, possibly empty.
	RawJSON string
	// ErrorDetail explains a canceled recognition.
	ErrorDetail string
}

func Recognized(text, rawJSON string) *Outcome {
	return &Outcome{Reason: ReasonRecognized, Text: text, RawJSON: rawJSON}
}

func NoMatch() *Outcome {
	return &Outcome{Reason: ReasonNoMatch}
}

func Canceled(detail string) *Outcome {
	return &Outcome{Reason: ReasonCanceled, ErrorDetail: detail}
}
