package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Static errors for signed-URL upload operations.
var (
	// ErrAPIBaseURLRequired is returned when the asset API base URL is not provided.
	ErrAPIBaseURLRequired = errors.New("assets: API base URL is required")
	// ErrPublicBaseURLRequired is returned when the public asset base URL is not provided.
	ErrPublicBaseURLRequired = errors.New("assets: public base URL is required")
	// ErrSignedURLRequest is returned when the signed-URL request fails.
	ErrSignedURLRequest = errors.New("assets: signed URL request failed")
	// ErrUploadFailed is returned when the PUT to the signed URL fails.
	ErrUploadFailed = errors.New("assets: upload failed")
	// ErrEmptySignedURL is returned when the asset service returns an empty body.
	ErrEmptySignedURL = errors.New("assets: empty signed URL returned")
)

// signedURLPath is the fixed asset-service endpoint that issues write URLs.
const signedURLPath = "/media/get-upload-url"

// SignedURLClient uploads assets via a two-step signed-URL protocol:
// it requests a write-capable signed URL for a derived storage key, PUTs the
// raw bytes to it, and constructs the public URL deterministically from the
// public base and the key. The PUT response body is never inspected.
type SignedURLClient struct {
	apiBaseURL    string
	publicBaseURL string
	projectID     string
	httpClient    *http.Client
}

// ClientOption is a function that configures a SignedURLClient.
type ClientOption func(*SignedURLClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(sc *SignedURLClient) {
		sc.httpClient = c
	}
}

// WithProjectID sets the project identifier passed on signed-URL requests.
func WithProjectID(projectID string) ClientOption {
	return func(sc *SignedURLClient) {
		sc.projectID = projectID
	}
}

// NewSignedURLClient creates a client for the signed-URL asset service.
// apiBaseURL is the asset service host, publicBaseURL the base assets are
// served from after upload.
func NewSignedURLClient(apiBaseURL, publicBaseURL string, opts ...ClientOption) (*SignedURLClient, error) {
	if apiBaseURL == "" {
		return nil, ErrAPIBaseURLRequired
	}
	if publicBaseURL == "" {
		return nil, ErrPublicBaseURLRequired
	}

	c := &SignedURLClient{
		apiBaseURL:    strings.TrimSuffix(apiBaseURL, "/"),
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload stores the file and returns its public URL.
func (c *SignedURLClient) Upload(ctx context.Context, data io.Reader, meta FileMetadata) (string, error) {
	key := StorageKey(meta.Name)

	signedURL, err := c.requestSignedURL(ctx, key)
	if err != nil {
		return "", err
	}

	if err := c.putFile(ctx, signedURL, data, meta.ContentType); err != nil {
		return "", err
	}

	return c.publicBaseURL + "/" + key, nil
}

// requestSignedURL asks the asset service for a write-capable URL for key.
// The response body is the signed URL as plain text.
func (c *SignedURLClient) requestSignedURL(ctx context.Context, key string) (string, error) {
	reqURL := fmt.Sprintf("%s%s?fileName=%s&projectId=%s",
		c.apiBaseURL, signedURLPath, url.QueryEscape(key), url.QueryEscape(c.projectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("assets: create signed URL request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignedURLRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrSignedURLRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrSignedURLRequest, resp.StatusCode)
	}

	signedURL := strings.TrimSpace(string(body))
	if signedURL == "" {
		return "", ErrEmptySignedURL
	}

	return signedURL, nil
}

// putFile PUTs the raw file bytes to the signed URL with the declared MIME type.
func (c *SignedURLClient) putFile(ctx context.Context, signedURL string, data io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, data)
	if err != nil {
		return fmt.Errorf("assets: create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	return nil
}

// Compile-time check that SignedURLClient implements Uploader.
var _ Uploader = (*SignedURLClient)(nil)
