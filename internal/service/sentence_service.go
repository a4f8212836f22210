package service

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

// DefaultSentences is the built-in practice catalog.
var DefaultSentences = []string{
	"The happy cat plays with a red ball.",
	"I love eating sweet ice cream on sunny days.",
	"My favorite teddy bear is soft and cuddly.",
	"Rainbow butterflies dance in the garden.",
	"The friendly puppy wags its fluffy tail.",
}

// SentenceService serves kid-friendly practice sentences.
type SentenceService struct {
	sentences []string
	intn      func(n int) int
}

// NewSentenceService creates a catalog. An empty list uses DefaultSentences.
func NewSentenceService(sentences []string) *SentenceService {
	if len(sentences) == 0 {
		sentences = DefaultSentences
	}
	return &SentenceService{
		sentences: append([]string(nil), sentences...),
		intn:      rand.IntN,
	}
}

// LoadSentences reads one sentence per line. Blank lines and lines starting
// with # are skipped.
func LoadSentences(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sentences file: %w", err)
	}
	defer f.Close()

	var sentences []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences = append(sentences, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sentences file: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("sentences file %s is empty", path)
	}
	return sentences, nil
}

// List returns the whole catalog.
func (s *SentenceService) List() []string {
	return append([]string(nil), s.sentences...)
}

// Random returns one sentence.
func (s *SentenceService) Random() string {
	return s.sentences[s.intn(len(s.sentences))]
}
