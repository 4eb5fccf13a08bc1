// Package download fetches resolved media URLs to local disk, deriving a
// file name from a generated identifier and an extension inferred from the
// response Content-Type or the URL.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromaplay/effects-api/internal/id"
)

// Static errors for download operations.
var (
	// ErrURLRequired is returned when no media URL is provided.
	ErrURLRequired = errors.New("download: media URL is required")
	// ErrFetchFailed is returned when the media fetch fails.
	ErrFetchFailed = errors.New("download: fetch failed")
)

// defaultPrefix names downloaded files when no prefix is configured.
const defaultPrefix = "result"

// Downloader saves remote media files into a managed directory.
type Downloader struct {
	dir        string
	prefix     string
	httpClient *http.Client
}

// Option is a function that configures a Downloader.
type Option func(*Downloader)

// WithPrefix sets the file name prefix for downloaded files.
func WithPrefix(prefix string) Option {
	return func(d *Downloader) {
		d.prefix = prefix
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.httpClient = c
	}
}

// New creates a Downloader writing into dir, creating it if needed.
// If dir is empty, a directory under os.TempDir() is used.
func New(dir string, opts ...Option) (*Downloader, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "effects-playground")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("download: create directory: %w", err)
	}

	d := &Downloader{
		dir:        dir,
		prefix:     defaultPrefix,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Dir returns the download directory path.
func (d *Downloader) Dir() string {
	return d.dir
}

// Download fetches the media at mediaURL and writes it to disk as
// <prefix>_<id>.<ext>, returning the file path.
func (d *Downloader) Download(ctx context.Context, mediaURL string) (string, error) {
	if mediaURL == "" {
		return "", ErrURLRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("download: create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	ext := inferExtension(resp.Header.Get("Content-Type"), mediaURL)
	name := fmt.Sprintf("%s_%s.%s", d.prefix, id.Generate(id.FileNameLength), ext)
	path := filepath.Join(d.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) // #nosec G304 - path is built from the managed dir
	if err != nil {
		return "", fmt.Errorf("download: create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("download: write file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("download: close file: %w", err)
	}

	return path, nil
}

// inferExtension picks a file extension from the response Content-Type,
// falling back to the URL, defaulting to jpg.
func inferExtension(contentType, mediaURL string) string {
	ct := strings.ToLower(contentType)
	lowered := strings.ToLower(mediaURL)
	if idx := strings.IndexByte(lowered, '?'); idx >= 0 {
		lowered = lowered[:idx]
	}

	switch {
	case strings.Contains(ct, "video"),
		strings.HasSuffix(lowered, ".mp4"),
		strings.HasSuffix(lowered, ".webm"):
		return "mp4"
	case strings.Contains(ct, "png"), strings.HasSuffix(lowered, ".png"):
		return "png"
	case strings.Contains(ct, "webp"), strings.HasSuffix(lowered, ".webp"):
		return "webp"
	default:
		return "jpg"
	}
}
