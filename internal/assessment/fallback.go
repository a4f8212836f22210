package assessment

import (
	"math"
	"math/rand/v2"
	"strings"

	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

// WordFallback produces a word breakdown when the engine returned none.
type WordFallback interface {
	Words(referenceText string, overallAccuracy int) ([]WordResult, error)
}

const (
	minFallbackScore = 50
	fallbackJitter   = 10
)

var punctuationStripper = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

// JitterFallback synthesizes one entry per reference word scored around the
// overall accuracy. The scores are approximate and vary between calls.
type JitterFallback struct {
	rand func() float64
}

// NewJitterFallback returns a fallback drawing jitter from math/rand/v2.
func NewJitterFallback() *JitterFallback {
	return &JitterFallback{rand: rand.Float64}
}

// NewJitterFallbackWithRand returns a fallback using f, which must return values in [0,1).
func NewJitterFallbackWithRand(f func() float64) *JitterFallback {
	return &JitterFallback{rand: f}
}

func (j *JitterFallback) Words(referenceText string, overallAccuracy int) ([]WordResult, error) {
	tokens := strings.Fields(referenceText)
	words := make([]WordResult, 0, len(tokens))
	for _, tok := range tokens {
		jitter := j.rand()*2*fallbackJitter - fallbackJitter
		words = append(words, WordResult{
			Word:          punctuationStripper.Replace(tok),
			AccuracyScore: math.Max(minFallbackScore, float64(overallAccuracy)+jitter),
		})
	}
	return words, nil
}

// StrictFallback fails the request instead of inventing scores.
type StrictFallback struct{}

func (StrictFallback) Words(string, int) ([]WordResult, error) {
	return nil, apperrors.Recognition("Speech recognition failed: engine returned no word-level detail", nil)
}
