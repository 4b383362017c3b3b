package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps artifacts in a local directory.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir, creating it when needed.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Put writes data atomically under key.
func (s *FileStore) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, fmt.Errorf("storage: create dir for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return Object{}, fmt.Errorf("storage: temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("storage: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("storage: rename %s: %w", key, err)
	}
	return Object{
		Key:         key,
		ContentType: contentTypeFor(key, contentType),
		Size:        int64(len(data)),
		ModTime:     time.Now().UTC(),
	}, nil
}

// Open returns a reader for key.
func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, Object{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("storage: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, Object{}, ErrNotFound
	}
	return f, Object{
		Key:         key,
		ContentType: contentTypeFor(key, ""),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

// Prune removes files last modified before cutoff.
func (s *FileStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
