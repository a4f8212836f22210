package repository

import (
	"context"
	"sync"
)

// InMemoryAttemptRepository keeps the latest attempts per learner in process
// memory. History is lost on restart.
type InMemoryAttemptRepository struct {
	mu    sync.RWMutex
	data  map[string][]*Attempt
	limit int
}

// NewInMemoryAttemptRepository creates a repository keeping up to limit attempts per learner.
func NewInMemoryAttemptRepository(limit int) *InMemoryAttemptRepository {
	return &InMemoryAttemptRepository{
		data:  make(map[string][]*Attempt),
		limit: limit,
	}
}

// Create records an attempt.
func (r *InMemoryAttemptRepository) Create(ctx context.Context, attempt *Attempt) error {
	if attempt.LearnerID == "" {
		return ErrInvalidLearner
	}
	prepare(attempt)

	cp := *attempt

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append([]*Attempt{&cp}, r.data[attempt.LearnerID]...)
	if r.limit > 0 && len(list) > r.limit {
		list = list[:r.limit]
	}
	r.data[attempt.LearnerID] = list
	return nil
}

// ListByLearner returns up to limit attempts, newest first.
func (r *InMemoryAttemptRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.data[learnerID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]*Attempt, 0, len(list))
	for _, a := range list {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// Ping always succeeds.
func (r *InMemoryAttemptRepository) Ping(ctx context.Context) error {
	return nil
}
