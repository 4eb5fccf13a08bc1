// Package result normalizes the variable-shaped completion payloads of the
// generation API into a single canonical media URL, optional thumbnail, and
// media kind.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMediaURL is returned when no media URL candidate is present in a
// completion payload. This is a terminal, non-retryable failure.
var ErrNoMediaURL = errors.New("result: no media URL in response")

// Kind classifies the resolved media.
type Kind string

const (
	// KindImage is a still image result.
	KindImage Kind = "image"
	// KindVideo is a video result.
	KindVideo Kind = "video"
)

// The upstream contract is not self-describing: the result item may name the
// media URL and thumbnail under any of these fields. Candidates are probed
// in order, first non-empty wins.
var (
	mediaURLCandidates  = []string{"mediaUrl", "video", "image"}
	thumbnailCandidates = []string{"thumbnailUrl", "thumbnail"}
)

// videoExtensions are the URL suffixes classified as video.
var videoExtensions = []string{".mp4", ".webm"}

// Result is the canonical form of a completed generation.
type Result struct {
	// MediaURL is the displayable/downloadable media URL.
	MediaURL string `json:"mediaUrl"`
	// ThumbnailURL is an optional preview URL; empty when the upstream
	// provided none.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// Kind is inferred from the media URL's file extension, not supplied
	// by the upstream service.
	Kind Kind `json:"kind"`
}

// Resolve normalizes the raw `result` field of a terminal completion payload.
// The field may be a single object or a list; when it is a list the first
// element is taken. Resolve is a pure function of its input.
func Resolve(raw json.RawMessage) (Result, error) {
	item, err := firstItem(raw)
	if err != nil {
		return Result{}, err
	}

	mediaURL := probe(item, mediaURLCandidates)
	if mediaURL == "" {
		return Result{}, ErrNoMediaURL
	}

	return Result{
		MediaURL:     mediaURL,
		ThumbnailURL: probe(item, thumbnailCandidates),
		Kind:         KindOf(mediaURL),
	}, nil
}

// firstItem unwraps the result field into a single object: the field itself
// when it is an object, its first element when it is a list.
func firstItem(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, ErrNoMediaURL
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("result: unmarshal result list: %w", err)
		}
		if len(list) == 0 {
			return nil, ErrNoMediaURL
		}
		return list[0], nil
	}

	var item map[string]json.RawMessage
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("result: unmarshal result: %w", err)
	}
	return item, nil
}

// probe tries the candidate fields in order and returns the first non-empty
// string value.
func probe(item map[string]json.RawMessage, candidates []string) string {
	for _, field := range candidates {
		raw, ok := item[field]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// KindOf infers the media kind from a URL's file extension, ignoring any
// query string and matching case-insensitively.
func KindOf(mediaURL string) Kind {
	path := mediaURL
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	path = strings.ToLower(path)

	for _, ext := range videoExtensions {
		if strings.HasSuffix(path, ext) {
			return KindVideo
		}
	}
	return KindImage
}
