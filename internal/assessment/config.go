// Package assessment runs a single pronunciation-assessment recognition and
// normalizes the engine's result into scores a child-facing UI can render.
package assessment

import (
	"encoding/json"
	"strings"

	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

const (
	GradingHundredMark     = "HundredMark"
	GranularityWord        = "Word"
	DimensionComprehensive = "Comprehensive"
	DefaultLanguage        = "en-US"
)

// Config is the per-request pronunciation assessment configuration.
// It is built fresh for every request and never shared.
type Config struct {
	ReferenceText string
	GradingSystem string
	Granularity   string
	EnableMiscue  bool
	Language      string
}

// NewConfig returns the assessment configuration for one request:
// 100-point grading, word granularity, miscue detection on.
func NewConfig(referenceText, language string) Config {
	if language == "" {
		language = DefaultLanguage
	}
	return Config{
		ReferenceText: referenceText,
		GradingSystem: GradingHundredMark,
		Granularity:   GranularityWord,
		EnableMiscue:  true,
		Language:      language,
	}
}

type params struct {
	ReferenceText string `json:"ReferenceText"`
	GradingSystem string `json:"GradingSystem"`
	Granularity   string `json:"Granularity"`
	EnableMiscue  bool   `json:"EnableMiscue"`
	Dimension     string `json:"Dimension"`
}

// JSON renders the configuration in the engine's parameter format.
func (c Config) JSON() ([]byte, error) {
	return json.Marshal(params{
		ReferenceText: c.ReferenceText,
		GradingSystem: c.GradingSystem,
		Granularity:   c.Granularity,
		EnableMiscue:  c.EnableMiscue,
		Dimension:     DimensionComprehensive,
	})
}

// Credentials identify the speech subscription.
type Credentials struct {
	SubscriptionKey string
	Region          string
}

// ValidateCredentials fails when the subscription key or region is missing.
// It is called at startup (warn only) and before every engine call.
func ValidateCredentials(c Credentials) error {
	if strings.TrimSpace(c.SubscriptionKey) == "" || strings.TrimSpace(c.Region) == "" {
		return apperrors.Configuration("Azure Speech Service configuration missing. Please set AZURE_SUBSCRIPTION_KEY and AZURE_SERVICE_REGION.")
	}
	return nil
}
