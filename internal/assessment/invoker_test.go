package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/windfall/kidspeech_service/internal/audio"
	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

type stubSession struct {
	outcome *Outcome
	err     error
	panics  bool
	wait    bool
	closed  int
}

func (s *stubSession) RecognizeOnce(ctx context.Context) (*Outcome, error) {
	if s.panics {
		panic("engine exploded")
	}
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.outcome, s.err
}

func (s *stubSession) Close() error {
	s.closed++
	return nil
}

type stubEngine struct {
	session  *stubSession
	err      error
	sessions int
	lastCfg  Config
}

func (e *stubEngine) NewSession(_ context.Context, _ *audio.Input, cfg Config, _ Credentials) (Session, error) {
	e.sessions++
	e.lastCfg = cfg
	if e.err != nil {
		return nil, e.err
	}
	return e.session, nil
}

var validCreds = Credentials{SubscriptionKey: "key", Region: "westeurope"}

const fullPayload = `{
  "RecognitionStatus": "Success",
  "DisplayText": "The happy cat.",
  "NBest": [{
    "Display": "The happy cat.",
    "AccuracyScore": 87.6,
    "FluencyScore": 90.4,
    "CompletenessScore": 100,
    "ProsodyScore": 72.5,
    "Words": [
      {"Word": "the", "AccuracyScore": 99.5, "ErrorType": "None"},
      {"Word": "happy", "AccuracyScore": 61.2, "ErrorType": "Mispronunciation"},
      {"Word": "cat", "PronunciationAssessment": {"AccuracyScore": 80.4}}
    ]
  }]
}`

func newTestInvoker(engine Engine, opts ...InvokerOption) *Invoker {
	n := NewNormalizer(NewJitterFallbackWithRand(func() float64 { return 0.5 }), zerolog.Nop())
	return NewInvoker(engine, n, zerolog.Nop(), opts...)
}

func TestInvoke(t *testing.T) {
	input := &audio.Input{Kind: audio.KindWavFile, MimeType: "audio/wav"}
	cfg := NewConfig("The happy cat.", "")

	Convey("Given missing credentials", t, func() {
		engine := &stubEngine{session: &stubSession{outcome: NoMatch()}}
		iv := newTestInvoker(engine)

		_, err := iv.Invoke(context.Background(), input, cfg, Credentials{Region: "westeurope"})

		Convey("Then it fails with a configuration error before opening a session", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrConfiguration)
			So(engine.sessions, ShouldEqual, 0)
		})
	})

	Convey("Given a recognized outcome with a full payload", t, func() {
		session := &stubSession{outcome: Recognized("The happy cat.", fullPayload)}
		engine := &stubEngine{session: session}
		var observed []string
		iv := newTestInvoker(engine, WithObserver(func(o string, _ time.Duration) {
			observed = append(observed, o)
		}))

		res, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then scores are rounded engine values", func() {
			So(err, ShouldBeNil)
			So(res.RecognizedText, ShouldEqual, "The happy cat.")
			So(res.AccuracyScore, ShouldEqual, 88)
			So(res.FluencyScore, ShouldEqual, 90)
			So(res.CompletenessScore, ShouldEqual, 100)
			So(res.ProsodyScore, ShouldEqual, 73)
		})

		Convey("Then words come from the engine in order", func() {
			So(res.WordSource, ShouldEqual, WordSourceEngine)
			So(len(res.Words), ShouldEqual, 3)
			So(res.Words[0].Word, ShouldEqual, "the")
			So(res.Words[0].AccuracyScore, ShouldEqual, 100)
			So(*res.Words[1].ErrorType, ShouldEqual, "Mispronunciation")
			So(res.Words[2].AccuracyScore, ShouldEqual, 80)
			So(res.Words[2].ErrorType, ShouldBeNil)
		})

		Convey("Then the session is closed once and the outcome observed", func() {
			So(engine.sessions, ShouldEqual, 1)
			So(session.closed, ShouldEqual, 1)
			So(observed, ShouldResemble, []string{"recognized"})
		})

		Convey("Then the engine received a word-level miscue configuration", func() {
			So(engine.lastCfg.GradingSystem, ShouldEqual, GradingHundredMark)
			So(engine.lastCfg.Granularity, ShouldEqual, GranularityWord)
			So(engine.lastCfg.EnableMiscue, ShouldBeTrue)
			So(engine.lastCfg.Language, ShouldEqual, DefaultLanguage)
		})
	})

	Convey("Given the same deterministic outcome twice", t, func() {
		engine := &stubEngine{session: &stubSession{outcome: Recognized("x", `{"NBest":[{"AccuracyScore":70.2,"FluencyScore":60.5,"CompletenessScore":50}]}`)}}
		iv := NewInvoker(engine, NewNormalizer(NewJitterFallback(), zerolog.Nop()), zerolog.Nop())

		first, err1 := iv.Invoke(context.Background(), input, cfg, validCreds)
		second, err2 := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then sentence scores match even though fallback words may differ", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(second.AccuracyScore, ShouldEqual, first.AccuracyScore)
			So(second.FluencyScore, ShouldEqual, first.FluencyScore)
			So(second.CompletenessScore, ShouldEqual, first.CompletenessScore)
			So(second.ProsodyScore, ShouldEqual, first.ProsodyScore)
			So(first.FluencyScore, ShouldEqual, 61)
			So(first.ProsodyScore, ShouldEqual, DefaultProsodyScore)
		})
	})

	Convey("Given a no-match outcome", t, func() {
		session := &stubSession{outcome: NoMatch()}
		iv := newTestInvoker(&stubEngine{session: session})

		_, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then it fails with a no-match error and closes the session", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrNoMatch)
			So(err.Error(), ShouldContainSubstring, "No speech could be recognized")
			So(session.closed, ShouldEqual, 1)
		})
	})

	Convey("Given a canceled outcome", t, func() {
		session := &stubSession{outcome: Canceled("AuthenticationFailure")}
		iv := newTestInvoker(&stubEngine{session: session})

		_, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then it fails with a recognition error carrying the detail", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrRecognition)
			So(err.Error(), ShouldContainSubstring, "Speech recognition failed: AuthenticationFailure")
			So(session.closed, ShouldEqual, 1)
		})
	})

	Convey("Given a transport failure", t, func() {
		session := &stubSession{err: errors.New("connection reset")}
		iv := newTestInvoker(&stubEngine{session: session})

		_, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then it is a recognition error and the session is still closed", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrRecognition)
			So(session.closed, ShouldEqual, 1)
		})
	})

	Convey("Given a session that cannot be created", t, func() {
		iv := newTestInvoker(&stubEngine{err: errors.New("bad endpoint")})

		_, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then it is a recognition error", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrRecognition)
		})
	})

	Convey("Given an engine that panics", t, func() {
		session := &stubSession{panics: true}
		iv := newTestInvoker(&stubEngine{session: session})

		Convey("Then the panic propagates after the session is closed", func() {
			So(func() { _, _ = iv.Invoke(context.Background(), input, cfg, validCreds) }, ShouldPanic)
			So(session.closed, ShouldEqual, 1)
		})
	})

	Convey("Given a configured timeout and an engine that never answers", t, func() {
		session := &stubSession{wait: true}
		iv := newTestInvoker(&stubEngine{session: session}, WithTimeout(20*time.Millisecond))

		_, err := iv.Invoke(context.Background(), input, cfg, validCreds)

		Convey("Then the call fails as an engine failure", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrRecognition)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(session.closed, ShouldEqual, 1)
		})
	})
}

func TestValidateCredentials(t *testing.T) {
	Convey("Given credentials", t, func() {
		So(ValidateCredentials(validCreds), ShouldBeNil)
		So(apperrors.CodeOf(ValidateCredentials(Credentials{SubscriptionKey: "k"})), ShouldEqual, apperrors.ErrConfiguration)
		So(apperrors.CodeOf(ValidateCredentials(Credentials{SubscriptionKey: "  ", Region: "r"})), ShouldEqual, apperrors.ErrConfiguration)
	})
}
