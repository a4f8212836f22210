//go:build speechsdk

package client

import (
	"context"
	"fmt"
	"os"

	sdkaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
)

// SDKAvailable reports whether the binary was built with the Speech SDK.
const SDKAvailable = true

// AzureSpeechSDKEngine is an assessment engine backed by the Azure Speech SDK
// (cgo). Build with -tags speechsdk.
type AzureSpeechSDKEngine struct {
	log zerolog.Logger
}

// NewAzureSpeechSDKEngine creates the SDK engine.
func NewAzureSpeechSDKEngine(log zerolog.Logger) (*AzureSpeechSDKEngine, error) {
	return &AzureSpeechSDKEngine{log: log}, nil
}

// sdkSession owns every SDK handle of one recognition. Handles are released
// in reverse order of creation.
type sdkSession struct {
	recognizer *speech.SpeechRecognizer
	closers    []func()
	used       bool
	closed     bool
}

func (s *sdkSession) push(f func()) {
	s.closers = append(s.closers, f)
}

func (e *AzureSpeechSDKEngine) NewSession(ctx context.Context, input *audio.Input, cfg assessment.Config, creds assessment.Credentials) (sess assessment.Session, err error) {
	s := &sdkSession{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	speechConfig, err := speech.NewSpeechConfigFromSubscription(creds.SubscriptionKey, creds.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech config: %w", err)
	}
	s.push(speechConfig.Close)

	if err := speechConfig.SetSpeechRecognitionLanguage(cfg.Language); err != nil {
		return nil, fmt.Errorf("failed to set recognition language: %w", err)
	}

	audioConfig, err := e.audioConfig(s, input)
	if err != nil {
		return nil, err
	}

	recognizer, err := speech.NewSpeechRecognizerFromConfig(speechConfig, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}
	s.push(recognizer.Close)
	s.recognizer = recognizer

	params, err := cfg.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	paConfig, err := speech.NewPronunciationAssessmentConfigFromJSON(string(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create pronunciation assessment config: %w", err)
	}
	s.push(paConfig.Close)

	if err := paConfig.ApplyTo(recognizer); err != nil {
		return nil, fmt.Errorf("failed to apply pronunciation assessment config: %w", err)
	}
	return s, nil
}

// audioConfig maps the resolved input to SDK audio: push streams keep their
// optional PCM hint, WAV files go through a temporary file.
func (e *AzureSpeechSDKEngine) audioConfig(s *sdkSession, input *audio.Input) (*sdkaudio.AudioConfig, error) {
	if input.Kind == audio.KindWavFile {
		f, err := os.CreateTemp("", "kidspeech-*.wav")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp wav: %w", err)
		}
		name := f.Name()
		s.push(func() { _ = os.Remove(name) })

		_, werr := f.Write(input.Data())
		cerr := f.Close()
		if werr != nil {
			return nil, fmt.Errorf("failed to write temp wav: %w", werr)
		}
		if cerr != nil {
			return nil, fmt.Errorf("failed to write temp wav: %w", cerr)
		}

		audioConfig, err := sdkaudio.NewAudioConfigFromWavFileInput(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create wav audio config: %w", err)
		}
		s.push(audioConfig.Close)
		return audioConfig, nil
	}

	var stream *sdkaudio.PushAudioInputStream
	if f := input.Format(); f != nil {
		format, err := sdkaudio.GetWaveFormatPCM(f.SampleRate, uint8(f.BitsPerSample), uint8(f.Channels))
		if err != nil {
			return nil, fmt.Errorf("failed to create stream format: %w", err)
		}
		s.push(format.Close)

		stream, err = sdkaudio.CreatePushAudioInputStreamFromFormat(format)
		if err != nil {
			return nil, fmt.Errorf("failed to create push stream: %w", err)
		}
	} else {
		var err error
		stream, err = sdkaudio.CreatePushAudioInputStream()
		if err != nil {
			return nil, fmt.Errorf("failed to create push stream: %w", err)
		}
	}
	s.push(stream.Close)

	if err := stream.Write(input.Data()); err != nil {
		return nil, fmt.Errorf("failed to write push stream: %w", err)
	}
	stream.CloseStream()

	audioConfig, err := sdkaudio.NewAudioConfigFromStreamInput(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream audio config: %w", err)
	}
	s.push(audioConfig.Close)
	return audioConfig, nil
}

func (s *sdkSession) RecognizeOnce(ctx context.Context) (*assessment.Outcome, error) {
	if s.closed || s.used {
		return nil, errSessionUsed
	}
	s.used = true

	var outcome speech.SpeechRecognitionOutcome
	select {
	case outcome = <-s.recognizer.RecognizeOnceAsync():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if outcome.Error != nil {
		return nil, outcome.Error
	}

	result := outcome.Result
	defer result.Close()

	switch result.Reason {
	case common.RecognizedSpeech:
		raw := result.Properties.GetProperty(common.SpeechServiceResponseJSONResult, "")
		return assessment.Recognized(result.Text, raw), nil
	case common.NoMatch:
		return assessment.NoMatch(), nil
	default:
		detail := result.Reason.String()
		if cd, err := speech.NewCancellationDetailsFromSpeechRecognitionResult(result); err == nil {
			detail = cd.ErrorDetails
		}
		return assessment.Canceled(detail), nil
	}
}

func (s *sdkSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	return nil
}
