package assessment

import (
	"github.com/rs/zerolog"
)

// Normalizer shapes a recognized outcome into an EvaluationResult.
type Normalizer struct {
	fallback WordFallback
	log      zerolog.Logger
}

// NewNormalizer creates a Normalizer. A nil fallback uses JitterFallback.
func NewNormalizer(fallback WordFallback, log zerolog.Logger) *Normalizer {
	if fallback == nil {
		fallback = NewJitterFallback()
	}
	return &Normalizer{fallback: fallback, log: log}
}

// Result builds the evaluation from a recognized outcome. A malformed payload
// is tolerated: scores read as absent and the word fallback is used.
func (n *Normalizer) Result(outcome *Outcome, referenceText string) (*EvaluationResult, error) {
	detail := n.parse(outcome.RawJSON)

	var scores ScoreSet
	if best := detail.Best(); best != nil {
		scores = best.Scores()
	}

	text := outcome.Text
	if text == "" {
		text = detail.DisplayText
	}

	result := &EvaluationResult{
		RecognizedText:    text,
		AccuracyScore:     roundScore(valueOr(scores.AccuracyScore, 0)),
		FluencyScore:      roundScore(valueOr(scores.FluencyScore, 0)),
		CompletenessScore: roundScore(valueOr(scores.CompletenessScore, 0)),
		ProsodyScore:      roundScore(valueOr(scores.ProsodyScore, DefaultProsodyScore)),
	}

	words, source, err := n.words(detail, referenceText, result.AccuracyScore)
	if err != nil {
		return nil, err
	}
	result.Words = words
	result.WordSource = source
	return result, nil
}

// Normalize returns the word breakdown for a raw payload, falling back to the
// reference text when the payload has no word detail.
func (n *Normalizer) Normalize(rawJSON, referenceText string, overallAccuracy int) ([]WordResult, WordSource, error) {
	return n.words(n.parse(rawJSON), referenceText, overallAccuracy)
}

func (n *Normalizer) parse(raw string) *DetailedResult {
	detail, err := ParseDetailedResult(raw)
	if err != nil {
		n.log.Warn().Err(err).Msg("Malformed assessment payload, treating word detail as absent")
		return &DetailedResult{}
	}
	return detail
}

func (n *Normalizer) words(detail *DetailedResult, referenceText string, overallAccuracy int) ([]WordResult, WordSource, error) {
	if words := engineWords(detail); len(words) > 0 {
		return words, WordSourceEngine, nil
	}

	n.log.Debug().Str("reference_text", referenceText).Msg("No word-level detail, using fallback")

	words, err := n.fallback.Words(referenceText, overallAccuracy)
	if err != nil {
		return nil, "", err
	}
	return words, WordSourceFallback, nil
}

func engineWords(detail *DetailedResult) []WordResult {
	best := detail.Best()
	if best == nil || len(best.Words) == 0 {
		return nil
	}

	words := make([]WordResult, 0, len(best.Words))
	for _, w := range best.Words {
		words = append(words, WordResult{
			Word:          w.Word,
			AccuracyScore: float64(roundScore(valueOr(w.Accuracy(), 0))),
			ErrorType:     nonEmpty(w.ErrorKind()),
		})
	}
	return words
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
