package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an artifact key does not exist.
	ErrNotFound = errors.New("storage: not found")

	errInvalidKey = errors.New("storage: invalid object key")
)

// Object describes a stored artifact.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Store persists prepared guide artifacts.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// Prune removes artifacts last modified before cutoff and reports how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// cleanKey validates slash-separated keys made of [a-z0-9._-] segments.
func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", errInvalidKey
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			default:
				return "", errInvalidKey
			}
		}
	}
	return key, nil
}

func contentTypeFor(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
