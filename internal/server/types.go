// Package server provides the HTTP surface for the effects playground.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/chromaplay/effects-api/internal/result"
)

// UploadRequest is the HTTP request body for uploading a source image.
type UploadRequest struct {
	// FileBase64 is the base64-encoded image content.
	FileBase64 string `json:"file_base64" validate:"required,base64"`
	// FileName is the original file name; its extension drives the storage key.
	FileName string `json:"file_name" validate:"required"`
	// ContentType is the MIME type sent alongside the upload.
	ContentType string `json:"content_type" validate:"required"`
}

// UploadResponse is the HTTP response after a successful upload.
type UploadResponse struct {
	// AssetURL is the durable public URL of the uploaded image.
	AssetURL string `json:"assetUrl"`
}

// GenerateResponse is the HTTP response after starting a generation attempt.
type GenerateResponse struct {
	// AttemptID is the unique identifier for the started attempt.
	AttemptID string `json:"attemptId"`
	// Status is the initial attempt status.
	Status string `json:"status"`
}

// AttemptResponse is the HTTP response for getting attempt details.
type AttemptResponse struct {
	// ID is the unique identifier for the attempt.
	ID string `json:"id"`
	// Status is the current attempt status.
	Status string `json:"status"`
	// StatusText is the latest human-readable status notification.
	StatusText string `json:"statusText"`
	// Polls is the number of status polls observed so far.
	Polls int `json:"polls"`
	// Error contains the failure message if the attempt failed.
	Error string `json:"error,omitempty"`
	// Result holds the resolved media once the attempt completed.
	Result *result.Result `json:"result,omitempty"`
	// CreatedAt is when the attempt was created.
	CreatedAt time.Time `json:"createdAt"`
	// CompletedAt is when the attempt reached a terminal state.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SessionResponse is the HTTP response describing the current session.
type SessionResponse struct {
	// State is the session lifecycle state.
	State string `json:"state"`
	// AssetURL is the uploaded asset URL, empty when nothing is uploaded.
	AssetURL string `json:"assetUrl,omitempty"`
	// Result holds the currently displayed media, if any.
	Result *result.Result `json:"result,omitempty"`
}

// DownloadResponse is the HTTP response after downloading the displayed result.
type DownloadResponse struct {
	// Path is the local file path the media was saved to.
	Path string `json:"path"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
