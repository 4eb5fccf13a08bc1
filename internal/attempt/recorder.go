package attempt

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chromaplay/effects-api/internal/result"
)

// Recorder projects session notifications onto the current attempt record.
// It satisfies the session's Notifier interface. The session allows only one
// generate action at a time, so a single current attempt is enough; Begin
// rebinds the recorder when a new attempt starts.
type Recorder struct {
	mu      sync.Mutex
	repo    Repository
	current *Attempt
	logger  *slog.Logger
}

// NewRecorder creates a Recorder writing to the given repository.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Begin creates and persists a new running attempt and makes it the target
// of subsequent notifications. It returns a snapshot of the new record.
func (r *Recorder) Begin(ctx context.Context, sourceImageURL string) (*Attempt, error) {
	a := New(sourceImageURL)
	if err := r.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.current = a
	r.mu.Unlock()

	return a.Clone(), nil
}

// OnStatusChange records a status text notification.
func (r *Recorder) OnStatusChange(text string) {
	r.update(func(a *Attempt) { a.SetStatusText(text) })
}

// OnProgress records a poll progress notification.
func (r *Recorder) OnProgress(attempt int) {
	r.update(func(a *Attempt) { a.SetPolls(attempt) })
}

// OnResult marks the current attempt completed.
func (r *Recorder) OnResult(res result.Result) {
	r.update(func(a *Attempt) { a.Complete(res) })
}

// OnError marks the current attempt failed.
func (r *Recorder) OnError(message string) {
	r.update(func(a *Attempt) { a.Fail(message) })
}

// update applies a mutation to the current attempt and persists it.
// Notifications arriving before any attempt began are dropped: upload-stage
// status changes happen outside a generate action.
func (r *Recorder) update(mutate func(*Attempt)) {
	r.mu.Lock()
	a := r.current
	r.mu.Unlock()

	if a == nil {
		return
	}

	mutate(a)
	if err := r.repo.Save(context.Background(), a); err != nil {
		r.logger.Error("failed to save attempt",
			slog.String("attempt_id", a.ID),
			slog.String("error", err.Error()),
		)
	}
}
