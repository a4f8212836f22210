//go:build !speechsdk

package client

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
)

// SDKAvailable reports whether the binary was built with the Speech SDK.
const SDKAvailable = false

// ErrSDKUnavailable is returned when SPEECH_ENGINE=sdk but the binary was
// built without -tags speechsdk.
var ErrSDKUnavailable = errors.New("speech sdk engine not compiled in, rebuild with -tags speechsdk")

// AzureSpeechSDKEngine is unavailable in this build.
type AzureSpeechSDKEngine struct{}

// NewAzureSpeechSDKEngine always fails in builds without the speechsdk tag.
func NewAzureSpeechSDKEngine(zerolog.Logger) (*AzureSpeechSDKEngine, error) {
	return nil, ErrSDKUnavailable
}

func (*AzureSpeechSDKEngine) NewSession(context.Context, *audio.Input, assessment.Config, assessment.Credentials) (assessment.Session, error) {
	return nil, ErrSDKUnavailable
}
