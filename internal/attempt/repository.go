package attempt

import (
	"context"
	"errors"
)

// ErrAttemptNotFound is returned when an attempt cannot be found by ID.
var ErrAttemptNotFound = errors.New("attempt not found")

// Repository defines the interface for attempt persistence.
type Repository interface {
	// Save persists an attempt. If the attempt already exists it is updated.
	Save(ctx context.Context, attempt *Attempt) error

	// FindByID retrieves an attempt by its unique identifier.
	// Returns ErrAttemptNotFound if the attempt does not exist.
	FindByID(ctx context.Context, id string) (*Attempt, error)

	// List returns all attempts.
	List(ctx context.Context) ([]*Attempt, error)

	// Delete removes an attempt.
	// Returns ErrAttemptNotFound if the attempt does not exist.
	Delete(ctx context.Context, id string) error
}
