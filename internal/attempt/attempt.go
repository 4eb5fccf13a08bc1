// Package attempt provides records for generation attempts: one record per
// generate action, tracking its progress from submission through terminal
// success or failure. It includes an in-memory repository and a Recorder
// that projects session notifications onto the current record.
package attempt

import (
	"sync"
	"time"

	"github.com/chromaplay/effects-api/internal/id"
	"github.com/chromaplay/effects-api/internal/result"
)

// Status represents the current state of a generation attempt.
type Status string

const (
	// StatusRunning indicates the attempt is in flight.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the attempt produced a result.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the attempt ended with an error.
	StatusFailed Status = "FAILED"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Attempt represents one generation attempt: a full submit→poll→resolve
// cycle triggered by a single generate action.
type Attempt struct {
	mu sync.RWMutex

	// ID is the unique identifier for this attempt.
	ID string
	// SourceImageURL is the uploaded asset the attempt was generated from.
	SourceImageURL string
	// Status is the current attempt state.
	Status Status
	// StatusText is the latest human-readable status notification.
	StatusText string
	// Polls is the number of poll progress notifications observed.
	Polls int
	// Error contains the failure message if the attempt failed.
	Error string
	// Result holds the resolved media on completion.
	Result *result.Result
	// CreatedAt is when the attempt was created.
	CreatedAt time.Time
	// UpdatedAt is when the attempt was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the attempt reached a terminal state.
	CompletedAt time.Time
}

// New creates a new running Attempt for the given source asset URL.
func New(sourceImageURL string) *Attempt {
	now := time.Now()
	return &Attempt{
		ID:             "attempt-" + id.Generate(12),
		SourceImageURL: sourceImageURL,
		Status:         StatusRunning,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetStatusText records the latest status notification.
func (a *Attempt) SetStatusText(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.StatusText = text
	a.UpdatedAt = time.Now()
}

// SetPolls records the latest poll attempt count.
func (a *Attempt) SetPolls(polls int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Polls = polls
	a.UpdatedAt = time.Now()
}

// Complete marks the attempt completed with its resolved result.
func (a *Attempt) Complete(res result.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Status = StatusCompleted
	a.Result = &res
	a.UpdatedAt = time.Now()
	a.CompletedAt = a.UpdatedAt
}

// Fail marks the attempt failed with an error message.
func (a *Attempt) Fail(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Status = StatusFailed
	a.Error = message
	a.UpdatedAt = time.Now()
	a.CompletedAt = a.UpdatedAt
}

// IsTerminal returns true if the attempt is in a terminal state.
func (a *Attempt) IsTerminal() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Status.IsTerminal()
}

// Clone creates a deep copy of the attempt for safe reads.
func (a *Attempt) Clone() *Attempt {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var res *result.Result
	if a.Result != nil {
		r := *a.Result
		res = &r
	}

	return &Attempt{
		ID:             a.ID,
		SourceImageURL: a.SourceImageURL,
		Status:         a.Status,
		StatusText:     a.StatusText,
		Polls:          a.Polls,
		Error:          a.Error,
		Result:         res,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		CompletedAt:    a.CompletedAt,
	}
}
