// Package session implements the asynchronous job lifecycle controller: the
// state machine that uploads an asset, submits a generation job referencing
// it, polls for completion, resolves the terminal payload, and keeps the
// session state consistent at every transition and failure point.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/chromaplay/effects-api/internal/assets"
	"github.com/chromaplay/effects-api/internal/chroma"
	"github.com/chromaplay/effects-api/internal/download"
	"github.com/chromaplay/effects-api/internal/result"
)

// State represents the controller's position in the lifecycle.
type State string

const (
	// StateIdle means no asset is uploaded and nothing is in flight.
	StateIdle State = "IDLE"
	// StateUploading means an asset upload is in flight.
	StateUploading State = "UPLOADING"
	// StateReady means an asset is uploaded and a generate action is allowed.
	StateReady State = "READY"
	// StateSubmitting means a generation job is being submitted.
	StateSubmitting State = "SUBMITTING"
	// StatePolling means the job status is being polled.
	StatePolling State = "POLLING"
	// StateResolving means a terminal payload is being resolved.
	StateResolving State = "RESOLVING"
	// StateDisplayed means a result is resolved and held by the session.
	StateDisplayed State = "DISPLAYED"
)

// Static errors for session gating.
var (
	// ErrBusy is returned when an action is attempted while another is in
	// flight. The controller enforces serial progression; re-entrant calls
	// are rejected by state gating, not blocked.
	ErrBusy = errors.New("session: another operation is in progress")
	// ErrNoAsset is returned when generate is attempted without an uploaded asset.
	ErrNoAsset = errors.New("session: no uploaded asset")
	// ErrNoResult is returned when download is attempted without a displayed result.
	ErrNoResult = errors.New("session: no result to download")
	// ErrNoDownloader is returned when download is attempted without a configured downloader.
	ErrNoDownloader = errors.New("session: downloader not configured")
	// ErrSuperseded is returned when an action's outcome arrived after a
	// newer action invalidated it. Superseded outcomes mutate nothing and
	// emit no notifications.
	ErrSuperseded = errors.New("session: superseded by a newer action")
)

// Status texts emitted through the notifier.
const (
	statusAwaitingInput = "AWAITING_INPUT"
	statusUploading     = "UPLOADING..."
	statusReady         = "READY"
	statusSubmitting    = "SUBMITTING JOB..."
	statusQueued        = "JOB QUEUED..."
	statusComplete      = "COMPLETE"
	statusError         = "ERROR"
)

// Session is the single active playground session. It owns the uploaded
// asset URL and the currently displayed result; both are mutated only on its
// state transitions. One upload or generate action runs at a time; each
// action captures a generation counter so outcomes that arrive after a
// superseding action are discarded.
type Session struct {
	mu         sync.Mutex
	state      State
	assetURL   string
	result     *result.Result
	generation uint64

	uploader   assets.Uploader
	client     chroma.Client
	downloader *download.Downloader
	notifier   Notifier
	logger     *slog.Logger
}

// Option is a function that configures a Session.
type Option func(*Session)

// WithDownloader enables the download action for resolved results.
func WithDownloader(d *download.Downloader) Option {
	return func(s *Session) {
		s.downloader = d
	}
}

// New creates a Session in the Idle state.
func New(uploader assets.Uploader, client chroma.Client, notifier Notifier, logger *slog.Logger, opts ...Option) *Session {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		state:    StateIdle,
		uploader: uploader,
		client:   client,
		notifier: notifier,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Upload stores a new source file and, on success, enables generation.
// Selecting a new file clears any prior result and supersedes tracking of a
// prior job. On failure the session resets to Idle with the asset discarded.
func (s *Session) Upload(ctx context.Context, data io.Reader, meta assets.FileMetadata) (string, error) {
	s.mu.Lock()
	if s.inFlight() {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.generation++
	gen := s.generation
	s.state = StateUploading
	s.result = nil
	s.mu.Unlock()

	s.notifier.OnStatusChange(statusUploading)

	url, err := s.uploader.Upload(ctx, data, meta)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return "", ErrSuperseded
	}

	if err != nil {
		// Upload failure discards the asset: equivalent to the remove action.
		s.assetURL = ""
		s.result = nil
		s.state = StateIdle
		s.mu.Unlock()

		s.notifier.OnStatusChange(statusError)
		s.notifier.OnError(err.Error())
		s.notifier.OnStatusChange(statusAwaitingInput)
		s.logger.Error("upload failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("session: upload: %w", err)
	}

	s.assetURL = url
	s.state = StateReady
	s.mu.Unlock()

	s.notifier.OnStatusChange(statusReady)
	s.logger.Info("asset uploaded", slog.String("url", url))
	return url, nil
}

// Generate runs one full submit→poll→resolve cycle against the uploaded
// asset. Failures at any stage return the session to Ready with the asset
// preserved, so generation can be retried without re-uploading.
func (s *Session) Generate(ctx context.Context) (res result.Result, err error) {
	s.mu.Lock()
	if s.assetURL == "" {
		s.mu.Unlock()
		return result.Result{}, ErrNoAsset
	}
	if s.state != StateReady && s.state != StateDisplayed {
		s.mu.Unlock()
		return result.Result{}, ErrBusy
	}
	gen := s.generation
	asset := s.assetURL
	s.state = StateSubmitting
	s.mu.Unlock()

	// Catch-all: an unexpected panic from a collaborator must resolve to the
	// error path rather than leaving the session stuck mid-operation.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during generate", slog.Any("panic", r))
			err = s.fail(gen, fmt.Errorf("session: unexpected failure: %v", r))
			res = result.Result{}
		}
	}()

	s.notifier.OnStatusChange(statusSubmitting)

	jobID, err := s.client.Submit(ctx, asset)
	if err != nil {
		return result.Result{}, s.fail(gen, err)
	}

	if err := s.advance(gen, StatePolling); err != nil {
		return result.Result{}, err
	}
	s.notifier.OnStatusChange(statusQueued)
	s.logger.Info("job submitted", slog.String("job_id", jobID))

	terminal, err := s.client.PollUntilDone(ctx, jobID, func(attempt int) {
		s.progress(gen, attempt)
	})
	if err != nil {
		return result.Result{}, s.fail(gen, err)
	}

	if err := s.advance(gen, StateResolving); err != nil {
		return result.Result{}, err
	}

	resolved, err := result.Resolve(terminal.Result)
	if err != nil {
		return result.Result{}, s.fail(gen, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return result.Result{}, ErrSuperseded
	}
	s.result = &resolved
	s.state = StateDisplayed
	s.mu.Unlock()

	s.notifier.OnResult(resolved)
	s.notifier.OnStatusChange(statusComplete)
	s.logger.Info("generation complete",
		slog.String("job_id", jobID),
		slog.String("media_url", resolved.MediaURL),
		slog.String("kind", string(resolved.Kind)),
	)
	return resolved, nil
}

// Download fetches the displayed result's media to local disk and returns
// the file path.
func (s *Session) Download(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != StateDisplayed || s.result == nil {
		s.mu.Unlock()
		return "", ErrNoResult
	}
	if s.downloader == nil {
		s.mu.Unlock()
		return "", ErrNoDownloader
	}
	mediaURL := s.result.MediaURL
	s.mu.Unlock()

	return s.downloader.Download(ctx, mediaURL)
}

// Reset returns the session to Idle: the asset and result are discarded and
// any in-flight action is superseded, its late outcome ignored. Reset is
// idempotent from every state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.generation++
	s.assetURL = ""
	s.result = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.notifier.OnStatusChange(statusAwaitingInput)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AssetURL returns the uploaded asset URL, or empty when none is held.
func (s *Session) AssetURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assetURL
}

// Result returns a copy of the displayed result, or nil when none is held.
func (s *Session) Result() *result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// inFlight reports whether an action currently owns the session.
// Must be called with the lock held.
func (s *Session) inFlight() bool {
	switch s.state {
	case StateUploading, StateSubmitting, StatePolling, StateResolving:
		return true
	default:
		return false
	}
}

// advance moves the lifecycle to next unless the action was superseded.
func (s *Session) advance(gen uint64, next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return ErrSuperseded
	}
	s.state = next
	return nil
}

// progress emits a poll progress notification unless the action was superseded.
func (s *Session) progress(gen uint64, attempt int) {
	s.mu.Lock()
	stale := s.generation != gen
	s.mu.Unlock()
	if stale {
		return
	}

	s.notifier.OnProgress(attempt)
	s.notifier.OnStatusChange(fmt.Sprintf("PROCESSING... (%d)", attempt))
}

// fail handles a generate-stage error: the attempt is discarded, the asset
// preserved, and the session returned to Ready. Superseded failures mutate
// nothing and notify nobody.
func (s *Session) fail(gen uint64, cause error) error {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.state = StateReady
	s.mu.Unlock()

	s.notifier.OnStatusChange(statusError)
	s.notifier.OnError(cause.Error())
	s.logger.Error("generation failed", slog.String("error", cause.Error()))
	return fmt.Errorf("session: generate: %w", cause)
}
