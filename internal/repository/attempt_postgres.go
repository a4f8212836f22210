package repository

import (
	"context"
	"fmt"

	"github.com/windfall/kidspeech_service/internal/client"
)

// PostgresAttemptRepository implements AttemptRepository with PostgreSQL.
// Schema: migrations/000001_create_evaluation_attempts.up.sql.
type PostgresAttemptRepository struct {
	db *client.PostgresClient
}

// NewPostgresAttemptRepository creates a new PostgresAttemptRepository.
func NewPostgresAttemptRepository(db *client.PostgresClient) *PostgresAttemptRepository {
	return &PostgresAttemptRepository{db: db}
}

// Create inserts a new attempt.
func (r *PostgresAttemptRepository) Create(ctx context.Context, attempt *Attempt) error {
	if r.db == nil || r.db.Pool == nil {
		return ErrNotConfigured
	}
	if attempt.LearnerID == "" {
		return ErrInvalidLearner
	}
	prepare(attempt)

	query := `
		INSERT INTO evaluation_attempts (
			id, learner_id, reference_text, recognized_text,
			accuracy_score, fluency_score, completeness_score, prosody_score,
			word_source, audio_type, audio_size, audio_url, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID,
		attempt.LearnerID,
		attempt.ReferenceText,
		attempt.RecognizedText,
		attempt.AccuracyScore,
		attempt.FluencyScore,
		attempt.CompletenessScore,
		attempt.ProsodyScore,
		attempt.WordSource,
		attempt.AudioType,
		attempt.AudioSize,
		attempt.AudioURL,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	return nil
}

// ListByLearner returns the learner's latest attempts.
func (r *PostgresAttemptRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*Attempt, error) {
	if r.db == nil || r.db.Pool == nil {
		return nil, ErrNotConfigured
	}

	query := `
		SELECT id, learner_id, reference_text, recognized_text,
			accuracy_score, fluency_score, completeness_score, prosody_score,
			word_source, audio_type, audio_size, COALESCE(audio_url, ''), created_at
		FROM evaluation_attempts
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(
			&a.ID,
			&a.LearnerID,
			&a.ReferenceText,
			&a.RecognizedText,
			&a.AccuracyScore,
			&a.FluencyScore,
			&a.CompletenessScore,
			&a.ProsodyScore,
			&a.WordSource,
			&a.AudioType,
			&a.AudioSize,
			&a.AudioURL,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// Ping checks database connectivity.
func (r *PostgresAttemptRepository) Ping(ctx context.Context) error {
	if r.db == nil || r.db.Pool == nil {
		return ErrNotConfigured
	}
	return r.db.Ping(ctx)
}
