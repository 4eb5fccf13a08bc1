package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromaplay/effects-api/internal/assets"
	"github.com/chromaplay/effects-api/internal/attempt"
	"github.com/chromaplay/effects-api/internal/chroma"
	"github.com/chromaplay/effects-api/internal/session"
)

type stubUploader struct {
	url string
	err error
}

func (s *stubUploader) Upload(_ context.Context, data io.Reader, _ assets.FileMetadata) (string, error) {
	_, _ = io.Copy(io.Discard, data)
	return s.url, s.err
}

type stubClient struct {
	jobID     string
	submitErr error
	final     chroma.StatusResponse
	pollErr   error
	polls     int
}

func (s *stubClient) Submit(context.Context, string) (string, error) {
	return s.jobID, s.submitErr
}

func (s *stubClient) Status(context.Context, string) (chroma.StatusResponse, error) {
	return s.final, s.pollErr
}

func (s *stubClient) PollUntilDone(_ context.Context, _ string, onProgress func(int)) (chroma.StatusResponse, error) {
	for i := 1; i <= s.polls; i++ {
		if onProgress != nil {
			onProgress(i)
		}
	}
	return s.final, s.pollErr
}

func newTestRouter(t *testing.T, uploader assets.Uploader, client chroma.Client) (http.Handler, attempt.Repository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := attempt.NewMemoryRepository()
	recorder := attempt.NewRecorder(repo, logger)
	sess := session.New(uploader, client, recorder, logger)
	h := NewHandlers(sess, repo, recorder, logger)
	return NewRouter(h, logger, DefaultConfig()), repo
}

func uploadBody(t *testing.T) string {
	t.Helper()
	payload := UploadRequest{
		FileBase64:  base64.StdEncoding.EncodeToString([]byte("fake image bytes")),
		FileName:    "photo.png",
		ContentType: "image/png",
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func doUpload(t *testing.T, router http.Handler) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(uploadBody(t))))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{url: "https://cdn.example.com/media/a.png"}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestUpload_Success(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{url: "https://cdn.example.com/media/a.png"}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(uploadBody(t))))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/media/a.png", resp.AssetURL)
}

func TestUpload_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_JSON", resp.Code)
}

func TestUpload_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	body := `{"file_base64":"","file_name":"","content_type":""}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestUpload_UpstreamFailure(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{err: errors.New("signed url service down")}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(uploadBody(t))))

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UPLOAD_FAILED", resp.Code)
}

func TestGenerate_WithoutAsset(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", nil))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NO_ASSET", resp.Code)
}

func TestGenerate_Success(t *testing.T) {
	client := &stubClient{
		jobID: "job-1",
		polls: 2,
		final: chroma.StatusResponse{
			Status: chroma.StatusCompleted,
			Result: json.RawMessage(`{"mediaUrl":"https://cdn.example.com/out.mp4"}`),
		},
	}
	router, repo := newTestRouter(t, &stubUploader{url: "https://cdn.example.com/media/a.png"}, client)
	doUpload(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AttemptID)
	assert.Equal(t, string(attempt.StatusRunning), resp.Status)

	// Generation runs in the background; wait for the attempt to settle.
	require.Eventually(t, func() bool {
		att, err := repo.FindByID(context.Background(), resp.AttemptID)
		return err == nil && att.Status == attempt.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	attRec := httptest.NewRecorder()
	router.ServeHTTP(attRec, httptest.NewRequest(http.MethodGet, "/attempts/"+resp.AttemptID, nil))
	require.Equal(t, http.StatusOK, attRec.Code)

	var att AttemptResponse
	require.NoError(t, json.Unmarshal(attRec.Body.Bytes(), &att))
	assert.Equal(t, string(attempt.StatusCompleted), att.Status)
	assert.Equal(t, 2, att.Polls)
	require.NotNil(t, att.Result)
	assert.Equal(t, "https://cdn.example.com/out.mp4", att.Result.MediaURL)
	require.NotNil(t, att.CompletedAt)

	sessRec := httptest.NewRecorder()
	router.ServeHTTP(sessRec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, sessRec.Code)

	var sess SessionResponse
	require.NoError(t, json.Unmarshal(sessRec.Body.Bytes(), &sess))
	assert.Equal(t, string(session.StateDisplayed), sess.State)
	require.NotNil(t, sess.Result)
}

func TestGenerate_JobFailureRecorded(t *testing.T) {
	client := &stubClient{
		jobID:   "job-1",
		pollErr: &chroma.JobFailedError{Message: "bad image"},
	}
	router, repo := newTestRouter(t, &stubUploader{url: "https://cdn.example.com/media/a.png"}, client)
	doUpload(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Eventually(t, func() bool {
		att, err := repo.FindByID(context.Background(), resp.AttemptID)
		return err == nil && att.Status == attempt.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	att, err := repo.FindByID(context.Background(), resp.AttemptID)
	require.NoError(t, err)
	assert.Contains(t, att.Error, "bad image")
}

func TestGetAttempt_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attempts/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ATTEMPT_NOT_FOUND", resp.Code)
}

func TestReset(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{url: "https://cdn.example.com/media/a.png"}, &stubClient{})
	doUpload(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	sessRec := httptest.NewRecorder()
	router.ServeHTTP(sessRec, httptest.NewRequest(http.MethodGet, "/session", nil))

	var sess SessionResponse
	require.NoError(t, json.Unmarshal(sessRec.Body.Bytes(), &sess))
	assert.Equal(t, string(session.StateIdle), sess.State)
	assert.Empty(t, sess.AssetURL)
}

func TestDownload_WithoutResult(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download", nil))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NO_RESULT", resp.Code)
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t, &stubUploader{}, &stubClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "rid-42", rec.Header().Get("X-Request-ID"))
}
