package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Attempt is one completed pronunciation evaluation of a learner.
type Attempt struct {
	ID                uuid.UUID `json:"id"`
	LearnerID         string    `json:"learnerId"`
	ReferenceText     string    `json:"referenceText"`
	RecognizedText    string    `json:"recognizedText"`
	AccuracyScore     int       `json:"accuracyScore"`
	FluencyScore      int       `json:"fluencyScore"`
	CompletenessScore int       `json:"completenessScore"`
	ProsodyScore      int       `json:"prosodyScore"`
	WordSource        string    `json:"wordSource"`
	AudioType         string    `json:"audioType"`
	AudioSize         int64     `json:"audioSize"`
	AudioURL          string    `json:"audioUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// AttemptRepository stores and lists a learner's attempts, newest first.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *Attempt) error
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]*Attempt, error)
	Ping(ctx context.Context) error
}

// prepare fills the ID and timestamp of a new attempt.
func prepare(a *Attempt) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

// Common repository errors
var (
	ErrNotConfigured  = &RepositoryError{Code: "NOT_CONFIGURED", Message: "attempt history not configured"}
	ErrInvalidLearner = &RepositoryError{Code: "INVALID_LEARNER", Message: "learner id is required"}
)

// RepositoryError represents a repository error.
type RepositoryError struct {
	Code    string
	Message string
}

func (e *RepositoryError) Error() string {
	return e.Code + ": " + e.Message
}
