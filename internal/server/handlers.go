package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/chromaplay/effects-api/internal/assets"
	"github.com/chromaplay/effects-api/internal/attempt"
	"github.com/chromaplay/effects-api/internal/session"
)

// Handlers contains the HTTP handlers for the playground API.
type Handlers struct {
	session   *session.Session
	attempts  attempt.Repository
	recorder  *attempt.Recorder
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sess *session.Session, attempts attempt.Repository, recorder *attempt.Recorder, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		session:   sess,
		attempts:  attempts,
		recorder:  recorder,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /uploads requests. It decodes the image payload and
// uploads it through the session, returning the durable asset URL.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 content", "INVALID_BASE64")
		return
	}

	assetURL, err := h.session.Upload(r.Context(), bytes.NewReader(data), assets.FileMetadata{
		Name:        req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeError(w, http.StatusConflict, "another operation is in progress", "SESSION_BUSY")
			return
		}
		if errors.Is(err, session.ErrSuperseded) {
			writeError(w, http.StatusConflict, "upload superseded by a newer action", "SUPERSEDED")
			return
		}
		h.logger.Error("upload failed",
			slog.String("file_name", req.FileName),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "upload failed", "UPLOAD_FAILED")
		return
	}

	h.logger.Info("asset uploaded",
		slog.String("file_name", req.FileName),
		slog.String("asset_url", assetURL),
	)

	writeJSON(w, http.StatusCreated, UploadResponse{AssetURL: assetURL})
}

// Generate handles POST /generate requests. It records a new attempt and
// runs the submit-poll-resolve pipeline in the background with a detached
// context, returning 202 immediately.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	assetURL := h.session.AssetURL()
	if assetURL == "" {
		writeError(w, http.StatusConflict, "no uploaded asset", "NO_ASSET")
		return
	}
	if state := h.session.State(); state != session.StateReady && state != session.StateDisplayed {
		writeError(w, http.StatusConflict, "another operation is in progress", "SESSION_BUSY")
		return
	}

	att, err := h.recorder.Begin(r.Context(), assetURL)
	if err != nil {
		h.logger.Error("failed to record attempt",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to start attempt", "ATTEMPT_START_FAILED")
		return
	}

	// Use context.WithoutCancel to prevent cancellation when the request ends.
	go func(ctx context.Context, attemptID string) {
		_, genErr := h.session.Generate(ctx)
		if genErr != nil && !errors.Is(genErr, session.ErrSuperseded) {
			h.logger.Error("background generation failed",
				slog.String("attempt_id", attemptID),
				slog.String("error", genErr.Error()),
			)
		}
	}(context.WithoutCancel(r.Context()), att.ID)

	h.logger.Info("generation started",
		slog.String("attempt_id", att.ID),
		slog.String("asset_url", assetURL),
	)

	writeJSON(w, http.StatusAccepted, GenerateResponse{
		AttemptID: att.ID,
		Status:    string(att.Status),
	})
}

// GetAttempt handles GET /attempts/{id} requests.
func (h *Handlers) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := r.PathValue("id")
	if attemptID == "" {
		writeError(w, http.StatusBadRequest, "attempt ID is required", "MISSING_ATTEMPT_ID")
		return
	}

	found, err := h.attempts.FindByID(r.Context(), attemptID)
	if err != nil {
		if errors.Is(err, attempt.ErrAttemptNotFound) {
			writeError(w, http.StatusNotFound, "attempt not found", "ATTEMPT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get attempt",
			slog.String("attempt_id", attemptID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get attempt", "ATTEMPT_FETCH_FAILED")
		return
	}

	resp := AttemptResponse{
		ID:         found.ID,
		Status:     string(found.Status),
		StatusText: found.StatusText,
		Polls:      found.Polls,
		Error:      found.Error,
		Result:     found.Result,
		CreatedAt:  found.CreatedAt,
	}
	if !found.CompletedAt.IsZero() {
		completed := found.CompletedAt
		resp.CompletedAt = &completed
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /session requests.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{
		State:    string(h.session.State()),
		AssetURL: h.session.AssetURL(),
		Result:   h.session.Result(),
	})
}

// Reset handles POST /reset requests. Reset is idempotent.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Download handles POST /download requests. It saves the displayed result
// to the configured download directory.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	path, err := h.session.Download(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoResult) || errors.Is(err, session.ErrNoDownloader) {
			writeError(w, http.StatusConflict, "no result to download", "NO_RESULT")
			return
		}
		h.logger.Error("download failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "download failed", "DOWNLOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, DownloadResponse{Path: path})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
