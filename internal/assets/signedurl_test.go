package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantExt  string
	}{
		{"jpeg file", "photo.jpeg", ".jpeg"},
		{"png file", "costume.png", ".png"},
		{"no extension defaults to jpg", "photo", ".jpg"},
		{"empty name defaults to jpg", "", ".jpg"},
		{"trailing dot defaults to jpg", "photo.", ".jpg"},
		{"multiple dots keep last", "archive.tar.gz", ".gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := StorageKey(tt.fileName)
			if !strings.HasPrefix(key, keyPrefix) {
				t.Errorf("StorageKey(%q) = %q, want prefix %q", tt.fileName, key, keyPrefix)
			}
			if !strings.HasSuffix(key, tt.wantExt) {
				t.Errorf("StorageKey(%q) = %q, want suffix %q", tt.fileName, key, tt.wantExt)
			}
			// prefix + 21-char id + extension
			wantLen := len(keyPrefix) + 21 + len(tt.wantExt)
			if len(key) != wantLen {
				t.Errorf("StorageKey(%q) length = %d, want %d", tt.fileName, len(key), wantLen)
			}
		})
	}
}

func TestNewSignedURLClient_Validation(t *testing.T) {
	if _, err := NewSignedURLClient("", "https://assets.example.com"); !errors.Is(err, ErrAPIBaseURLRequired) {
		t.Errorf("expected ErrAPIBaseURLRequired, got %v", err)
	}
	if _, err := NewSignedURLClient("https://api.example.com", ""); !errors.Is(err, ErrPublicBaseURLRequired) {
		t.Errorf("expected ErrPublicBaseURLRequired, got %v", err)
	}
}

func TestUpload_Success(t *testing.T) {
	var putBody string
	var putContentType string

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		putBody = string(body)
		putContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer upload.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != signedURLPath {
			t.Errorf("expected path %s, got %s", signedURLPath, r.URL.Path)
		}
		fileName := r.URL.Query().Get("fileName")
		if !strings.HasPrefix(fileName, keyPrefix) || !strings.HasSuffix(fileName, ".png") {
			t.Errorf("unexpected fileName param %q", fileName)
		}
		if got := r.URL.Query().Get("projectId"); got != "dressr" {
			t.Errorf("expected projectId 'dressr', got %q", got)
		}
		_, _ = w.Write([]byte(upload.URL + "/signed"))
	}))
	defer api.Close()

	client, err := NewSignedURLClient(api.URL, "https://assets.example.com", WithProjectID("dressr"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := client.Upload(context.Background(), strings.NewReader("file-bytes"), FileMetadata{
		Name:        "costume.png",
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if putBody != "file-bytes" {
		t.Errorf("expected raw file bytes to be PUT, got %q", putBody)
	}
	if putContentType != "image/png" {
		t.Errorf("expected Content-Type image/png, got %q", putContentType)
	}
	if !strings.HasPrefix(url, "https://assets.example.com/"+keyPrefix) {
		t.Errorf("public URL %q not under public base", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("public URL %q lost the file extension", url)
	}
}

func TestUpload_SignedURLRequestFails(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer api.Close()

	client, err := NewSignedURLClient(api.URL, "https://assets.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Upload(context.Background(), strings.NewReader("x"), FileMetadata{Name: "a.jpg"})
	if !errors.Is(err, ErrSignedURLRequest) {
		t.Errorf("expected ErrSignedURLRequest, got %v", err)
	}
}

func TestUpload_PutFails(t *testing.T) {
	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upload.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(upload.URL + "/signed"))
	}))
	defer api.Close()

	client, err := NewSignedURLClient(api.URL, "https://assets.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Upload(context.Background(), strings.NewReader("x"), FileMetadata{Name: "a.jpg"})
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
}

func TestUpload_EmptySignedURL(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   "))
	}))
	defer api.Close()

	client, err := NewSignedURLClient(api.URL, "https://assets.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Upload(context.Background(), strings.NewReader("x"), FileMetadata{Name: "a.jpg"})
	if !errors.Is(err, ErrEmptySignedURL) {
		t.Errorf("expected ErrEmptySignedURL, got %v", err)
	}
}
