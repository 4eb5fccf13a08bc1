// Package assets provides clients for uploading binary assets and obtaining
// durable, publicly fetchable URLs for them. The primary implementation
// speaks a two-step signed-URL protocol; an S3 implementation is available
// as an alternative backend.
package assets

import (
	"context"
	"io"
	"strings"

	"github.com/chromaplay/effects-api/internal/id"
)

// keyPrefix namespaces every uploaded asset under a common folder.
const keyPrefix = "media/"

// defaultExtension is used when the original file name carries no extension.
const defaultExtension = "jpg"

// FileMetadata describes the file being uploaded.
type FileMetadata struct {
	// Name is the original file name, used only to derive the extension.
	Name string
	// ContentType is the declared MIME type, sent as Content-Type on upload.
	ContentType string
}

// Uploader turns a local file into a durable public URL.
// Implementations perform no internal retries; the caller owns retry policy.
type Uploader interface {
	// Upload stores the file bytes and returns the public URL they will be
	// served from.
	Upload(ctx context.Context, data io.Reader, meta FileMetadata) (url string, err error)
}

// StorageKey derives the storage key for a file: the fixed prefix, a fresh
// generated identifier, and the extension taken from the original name
// (defaulting to jpg when absent).
func StorageKey(fileName string) string {
	return keyPrefix + id.New() + "." + extensionOf(fileName)
}

// extensionOf returns the substring after the last dot of name, or the
// default extension if name has none.
func extensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return defaultExtension
	}
	return name[idx+1:]
}
