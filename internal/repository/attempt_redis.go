package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/windfall/kidspeech_service/internal/client"
)

// RedisAttemptRepository keeps a capped, expiring list of attempts per learner.
type RedisAttemptRepository struct {
	redis *client.RedisClient
	limit int
	ttl   time.Duration
}

// NewRedisAttemptRepository creates a repository keeping up to limit attempts
// per learner for ttl after the latest one.
func NewRedisAttemptRepository(redis *client.RedisClient, limit int, ttl time.Duration) *RedisAttemptRepository {
	return &RedisAttemptRepository{redis: redis, limit: limit, ttl: ttl}
}

func attemptsKey(learnerID string) string {
	return "attempts:learner:" + learnerID
}

// Create records an attempt.
func (r *RedisAttemptRepository) Create(ctx context.Context, attempt *Attempt) error {
	if r.redis == nil {
		return ErrNotConfigured
	}
	if attempt.LearnerID == "" {
		return ErrInvalidLearner
	}
	prepare(attempt)

	if err := r.redis.PushCapped(ctx, attemptsKey(attempt.LearnerID), attempt, r.limit, r.ttl); err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// ListByLearner returns up to limit attempts, newest first.
func (r *RedisAttemptRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*Attempt, error) {
	if r.redis == nil {
		return nil, ErrNotConfigured
	}

	raw, err := r.redis.Range(ctx, attemptsKey(learnerID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]*Attempt, 0, len(raw))
	for _, data := range raw {
		var a Attempt
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, nil
}

// Ping checks Redis connectivity.
func (r *RedisAttemptRepository) Ping(ctx context.Context) error {
	if r.redis == nil {
		return ErrNotConfigured
	}
	return r.redis.Ping(ctx)
}
