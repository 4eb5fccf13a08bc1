package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Static errors for ChromaStudio client operations.
var (
	// ErrBaseURLRequired is returned when the API base URL is not provided.
	ErrBaseURLRequired = errors.New("chroma: base URL is required")
	// ErrUserIDRequired is returned when the user ID is not provided.
	ErrUserIDRequired = errors.New("chroma: user ID is required")
	// ErrJobIDRequired is returned when the job ID is not provided.
	ErrJobIDRequired = errors.New("chroma: job ID is required")
	// ErrNoJobIDReturned is returned when the submit response contains no job ID.
	ErrNoJobIDReturned = errors.New("chroma: submit failed: no job ID returned")
	// ErrSubmitFailed is returned when the submit request fails with a non-2xx status.
	ErrSubmitFailed = errors.New("chroma: submit failed")
	// ErrStatusRequestFailed is returned when a status request fails with a non-2xx status.
	ErrStatusRequestFailed = errors.New("chroma: status request failed")
)

// Default polling cadence: a fixed 2-second interval with a cap of 60
// attempts, a hard ceiling of two minutes wall-clock.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxPolls     = 60
)

// Client defines the interface for interacting with the ChromaStudio API.
type Client interface {
	// Submit posts a generation job referencing an uploaded asset URL and
	// returns the job ID.
	Submit(ctx context.Context, imageURL string) (jobID string, err error)

	// Status issues a single status request for a job.
	Status(ctx context.Context, jobID string) (StatusResponse, error)

	// PollUntilDone polls the job status at a fixed cadence until it reaches
	// a terminal state or the attempt cap is exhausted. onProgress, if
	// non-nil, is invoked with the attempt count after each non-terminal
	// response.
	PollUntilDone(ctx context.Context, jobID string, onProgress func(attempt int)) (StatusResponse, error)
}

// HTTPClient is the HTTP implementation of the ChromaStudio Client interface.
// Polling is strictly sequential: exactly one request is in flight at a time,
// and the wait between attempts is unconditional, not adaptive.
type HTTPClient struct {
	baseURL         string
	userID          string
	jobType         JobType
	effectID        string
	model           string
	removeWatermark bool
	isPrivate       bool
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPolls        int
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithJobType selects the generation endpoint (image or video).
func WithJobType(t JobType) ClientOption {
	return func(hc *HTTPClient) {
		hc.jobType = t
	}
}

// WithEffectID sets the effect identifier sent with every job.
func WithEffectID(effectID string) ClientOption {
	return func(hc *HTTPClient) {
		hc.effectID = effectID
	}
}

// WithModel sets the model identifier sent with every job.
func WithModel(model string) ClientOption {
	return func(hc *HTTPClient) {
		hc.model = model
	}
}

// WithRemoveWatermark sets the watermark-removal flag.
func WithRemoveWatermark(remove bool) ClientOption {
	return func(hc *HTTPClient) {
		hc.removeWatermark = remove
	}
}

// WithPrivate sets the privacy flag.
func WithPrivate(private bool) ClientOption {
	return func(hc *HTTPClient) {
		hc.isPrivate = private
	}
}

// WithPollInterval sets the fixed wait between poll attempts.
func WithPollInterval(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.pollInterval = d
	}
}

// WithMaxPolls sets the poll attempt cap.
func WithMaxPolls(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxPolls = n
	}
}

// NewClient creates a new ChromaStudio HTTP client.
// baseURL is the generation API host, userID the fixed user identifier the
// upstream scopes jobs under.
func NewClient(baseURL, userID string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	c := &HTTPClient{
		baseURL:         baseURL,
		userID:          userID,
		jobType:         JobTypeVideo,
		effectID:        "halloween",
		model:           "video-effects",
		removeWatermark: true,
		isPrivate:       true,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		pollInterval:    DefaultPollInterval,
		maxPolls:        DefaultMaxPolls,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Submit posts a generation job and returns the job ID.
func (c *HTTPClient) Submit(ctx context.Context, imageURL string) (string, error) {
	var reqBody any
	if c.jobType == JobTypeVideo {
		reqBody = videoSubmitRequest{
			ImageURL:        []string{imageURL},
			EffectID:        c.effectID,
			UserID:          c.userID,
			RemoveWatermark: c.removeWatermark,
			Model:           c.model,
			IsPrivate:       c.isPrivate,
		}
	} else {
		reqBody = imageSubmitRequest{
			Model:           c.model,
			ToolType:        c.model,
			EffectID:        c.effectID,
			ImageURL:        imageURL,
			UserID:          c.userID,
			RemoveWatermark: c.removeWatermark,
			IsPrivate:       c.isPrivate,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("chroma: marshal request: %w", err)
	}

	url := c.baseURL + c.jobType.endpointPath()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("chroma: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrSubmitFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrSubmitFailed, resp.StatusCode)
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("chroma: unmarshal response: %w", err)
	}

	if parsed.JobID == "" {
		return "", ErrNoJobIDReturned
	}

	return parsed.JobID, nil
}

// Status issues a single status request for a job.
// A non-2xx response fails immediately; transport-level failures are not
// retried here, the poll loop is a wait-and-recheck, not an error retry.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (StatusResponse, error) {
	if jobID == "" {
		return StatusResponse{}, ErrJobIDRequired
	}

	url := fmt.Sprintf("%s%s/%s/%s/status", c.baseURL, c.jobType.endpointPath(), c.userID, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("chroma: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("%w: %w", ErrStatusRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("%w: read response: %w", ErrStatusRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusResponse{}, fmt.Errorf("%w: status %d", ErrStatusRequestFailed, resp.StatusCode)
	}

	var parsed StatusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return StatusResponse{}, fmt.Errorf("chroma: unmarshal response: %w", err)
	}

	return parsed, nil
}

// PollUntilDone polls the job until a terminal status or the attempt cap.
// It returns the terminal payload on completion, a JobFailedError when the
// upstream reports failure, and a TimeoutError when the cap is exhausted
// without a terminal state; in the latter case no further request is issued.
func (c *HTTPClient) PollUntilDone(ctx context.Context, jobID string, onProgress func(attempt int)) (StatusResponse, error) {
	attempt := 0

	for attempt < c.maxPolls {
		resp, err := c.Status(ctx, jobID)
		if err != nil {
			return StatusResponse{}, err
		}

		switch resp.Status {
		case StatusCompleted:
			return resp, nil
		case StatusFailed, StatusError:
			msg := resp.Error
			if msg == "" {
				msg = "unknown"
			}
			return resp, &JobFailedError{Message: msg}
		}

		attempt++
		if onProgress != nil {
			onProgress(attempt)
		}

		select {
		case <-ctx.Done():
			return StatusResponse{}, fmt.Errorf("chroma: poll cancelled: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	return StatusResponse{}, &TimeoutError{Attempts: c.maxPolls}
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
