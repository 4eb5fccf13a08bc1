// Package chroma provides an HTTP client for the ChromaStudio media
// generation API: job submission and status polling.
package chroma

import (
	"encoding/json"
	"fmt"
)

// JobType selects which generation endpoint a job is submitted to.
type JobType string

const (
	// JobTypeImage submits to the image generation endpoint.
	JobTypeImage JobType = "image"
	// JobTypeVideo submits to the video generation endpoint.
	JobTypeVideo JobType = "video"
)

// IsValid returns true if the job type is valid.
func (t JobType) IsValid() bool {
	return t == JobTypeImage || t == JobTypeVideo
}

// endpointPath returns the API path for the job type.
func (t JobType) endpointPath() string {
	if t == JobTypeImage {
		return "/image-gen"
	}
	return "/video-gen"
}

// Status represents the status of a generation job as reported upstream.
// The upstream contract is not self-describing; any value other than the
// terminal ones is treated as still in progress.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
)

// IsTerminal returns true if the status ends polling.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// videoSubmitRequest is the request body for video generation jobs.
// The video API expects imageUrl as a single-element list; this asymmetry
// with the image API is dictated by the upstream protocol.
type videoSubmitRequest struct {
	ImageURL        []string `json:"imageUrl"`
	EffectID        string   `json:"effectId"`
	UserID          string   `json:"userId"`
	RemoveWatermark bool     `json:"removeWatermark"`
	Model           string   `json:"model"`
	IsPrivate       bool     `json:"isPrivate"`
}

// imageSubmitRequest is the request body for image generation jobs.
// The image API expects imageUrl as a scalar and an additional toolType field.
type imageSubmitRequest struct {
	Model           string `json:"model"`
	ToolType        string `json:"toolType"`
	EffectID        string `json:"effectId"`
	ImageURL        string `json:"imageUrl"`
	UserID          string `json:"userId"`
	RemoveWatermark bool   `json:"removeWatermark"`
	IsPrivate       bool   `json:"isPrivate"`
}

// submitResponse represents the response from a submit endpoint.
// Only jobId is relied upon; the rest of the body is opaque.
type submitResponse struct {
	JobID string `json:"jobId"`
}

// StatusResponse represents the response from a status endpoint.
// Result is kept raw for the resolver: its shape varies by job type.
type StatusResponse struct {
	Status Status          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// JobFailedError is returned when the upstream reports a terminal failed or
// error status for a job.
type JobFailedError struct {
	// Message is the upstream error message, or "unknown" when none was given.
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("chroma: job failed: %s", e.Message)
}

// TimeoutError is returned when the poll attempt cap is exhausted without
// the job reaching a terminal status.
type TimeoutError struct {
	// Attempts is the number of status requests issued before giving up.
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("chroma: job timed out after %d polls", e.Attempts)
}
