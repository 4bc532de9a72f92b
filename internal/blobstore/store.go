package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

// Store persists receipt blobs under caller-chosen keys such as "{agreement_id}/{hash}.pdf".
type Store interface {
	// Put writes data under key and returns the backend location of the blob.
	Put(ctx context.Context, key string, contentType string, data []byte) (string, error)
	// Get reads the blob stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return cleaned, nil
}
