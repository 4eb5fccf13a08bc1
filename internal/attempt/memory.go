package attempt

import (
	"context"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// Attempts are scoped to a single playground session, so a map with RWMutex
// is sufficient; swap for persistent storage if attempts ever need to
// outlive the process.
type MemoryRepository struct {
	mu       sync.RWMutex
	attempts map[string]*Attempt
}

// NewMemoryRepository creates a new in-memory attempt repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		attempts: make(map[string]*Attempt),
	}
}

// Save persists an attempt to the in-memory storage.
// Creates a clone to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, attempt *Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[attempt.ID] = attempt.Clone()
	return nil
}

// FindByID retrieves an attempt by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return attempt.Clone(), nil
}

// List returns all attempts in the repository.
// Returns clones to prevent external mutations.
func (r *MemoryRepository) List(_ context.Context) ([]*Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Attempt, 0, len(r.attempts))
	for _, attempt := range r.attempts {
		res = append(res, attempt.Clone())
	}
	return res, nil
}

// Delete removes an attempt from storage.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[id]; !ok {
		return ErrAttemptNotFound
	}
	delete(r.attempts, id)
	return nil
}
