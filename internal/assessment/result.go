package assessment

import "math"

// DefaultProsodyScore is reported when the engine omits prosody.
const DefaultProsodyScore = 85

// WordSource tells where the word breakdown came from.
type WordSource string

const (
	WordSourceEngine WordSource = "engine"
	// WordSourceFallback marks synthesized words. They are not a measurement.
	WordSourceFallback WordSource = "fallback"
)

// EvaluationResult is the normalized assessment returned to the caller.
type EvaluationResult struct {
	RecognizedText    string       `json:"recognizedText"`
	AccuracyScore     int          `json:"accuracyScore"`
	FluencyScore      int          `json:"fluencyScore"`
	CompletenessScore int          `json:"completenessScore"`
	ProsodyScore      int          `json:"prosodyScore"`
	Words             []WordResult `json:"words"`
	WordSource        WordSource   `json:"wordSource"`
}

// WordResult is the score of one word. ErrorType is null when the engine
// reported no miscue.
type WordResult struct {
	Word          string  `json:"word"`
	AccuracyScore float64 `json:"accuracyScore"`
	ErrorType     *string `json:"errorType"`
}

// roundScore rounds to the nearest integer and clamps to [0,100].
func roundScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
