package assessment

import (
	"encoding/json"
	"strings"
)

// ScoreSet holds pronunciation scores. Every field is optional.
type ScoreSet struct {
	AccuracyScore     *float64 `json:"AccuracyScore,omitempty"`
	FluencyScore      *float64 `json:"FluencyScore,omitempty"`
	CompletenessScore *float64 `json:"CompletenessScore,omitempty"`
	ProsodyScore      *float64 `json:"ProsodyScore,omitempty"`
	PronScore         *float64 `json:"PronScore,omitempty"`
	ErrorType         *string  `json:"ErrorType,omitempty"`
}

// WordDetail is one word of the engine's breakdown. The SDK nests scores under
// PronunciationAssessment while the REST API puts them on the word itself.
type WordDetail struct {
	Word                    string    `json:"Word"`
	Offset                  *int64    `json:"Offset,omitempty"`
	Duration                *int64    `json:"Duration,omitempty"`
	AccuracyScore           *float64  `json:"AccuracyScore,omitempty"`
	ErrorType               *string   `json:"ErrorType,omitempty"`
	PronunciationAssessment *ScoreSet `json:"PronunciationAssessment,omitempty"`
}

// Accuracy returns the word accuracy, nested value first, or nil when absent.
func (w WordDetail) Accuracy() *float64 {
	if w.PronunciationAssessment != nil && w.PronunciationAssessment.AccuracyScore != nil {
		return w.PronunciationAssessment.AccuracyScore
	}
	return w.AccuracyScore
}

// ErrorKind returns the miscue classification, nested value first, or nil when absent.
func (w WordDetail) ErrorKind() *string {
	if w.PronunciationAssessment != nil && w.PronunciationAssessment.ErrorType != nil {
		return w.PronunciationAssessment.ErrorType
	}
	return w.ErrorType
}

// NBestEntry is one recognition hypothesis.
type NBestEntry struct {
	Confidence *float64 `json:"Confidence,omitempty"`
	Lexical    string   `json:"Lexical,omitempty"`
	ITN        string   `json:"ITN,omitempty"`
	MaskedITN  string   `json:"MaskedITN,omitempty"`
	Display    string   `json:"Display,omitempty"`

	AccuracyScore     *float64 `json:"AccuracyScore,omitempty"`
	FluencyScore      *float64 `json:"FluencyScore,omitempty"`
	CompletenessScore *float64 `json:"CompletenessScore,omitempty"`
	ProsodyScore      *float64 `json:"ProsodyScore,omitempty"`
	PronScore         *float64 `json:"PronScore,omitempty"`

	PronunciationAssessment *ScoreSet    `json:"PronunciationAssessment,omitempty"`
	Words                   []WordDetail `json:"Words,omitempty"`
}

// Scores merges nested and flat sentence-level scores, nested first.
func (n NBestEntry) Scores() ScoreSet {
	s := ScoreSet{
		AccuracyScore:     n.AccuracyScore,
		FluencyScore:      n.FluencyScore,
		CompletenessScore: n.CompletenessScore,
		ProsodyScore:      n.ProsodyScore,
		PronScore:         n.PronScore,
	}
	pa := n.PronunciationAssessment
	if pa == nil {
		return s
	}
	if pa.AccuracyScore != nil {
		s.AccuracyScore = pa.AccuracyScore
	}
	if pa.FluencyScore != nil {
		s.FluencyScore = pa.FluencyScore
	}
	if pa.CompletenessScore != nil {
		s.CompletenessScore = pa.CompletenessScore
	}
	if pa.ProsodyScore != nil {
		s.ProsodyScore = pa.ProsodyScore
	}
	if pa.PronScore != nil {
		s.PronScore = pa.PronScore
	}
	return s
}

// DetailedResult is the engine's detailed recognition result.
type DetailedResult struct {
	RecognitionStatus string       `json:"RecognitionStatus,omitempty"`
	DisplayText       string       `json:"DisplayText,omitempty"`
	Offset            *int64       `json:"Offset,omitempty"`
	Duration          *int64       `json:"Duration,omitempty"`
	NBest             []NBestEntry `json:"NBest,omitempty"`
}

// ParseDetailedResult decodes a detailed result. An empty payload yields an
// empty result, not an error.
func ParseDetailedResult(raw string) (*DetailedResult, error) {
	var d DetailedResult
	if strings.TrimSpace(raw) == "" {
		return &d, nil
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Best returns the top hypothesis, or nil.
func (d *DetailedResult) Best() *NBestEntry {
	if d == nil || len(d.NBest) == 0 {
		return nil
	}
	return &d.NBest[0]
}
