package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore keeps artifacts in a Cloud Storage bucket under an optional prefix.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore constructs a store backed by the provided Cloud Storage client.
func NewGCSStore(client *gcs.Client, bucket, prefix string) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

func (s *GCSStore) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put uploads data under key.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	ct := contentTypeFor(key, contentType)
	w := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = ct
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("storage: upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: finalize %s: %w", key, err)
	}
	attrs := w.Attrs()
	obj := Object{Key: key, ContentType: ct, Size: int64(len(data)), ModTime: time.Now().UTC()}
	if attrs != nil {
		obj.ModTime = attrs.Updated
	}
	return obj, nil
}

// Open streams the object stored under key.
func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, Object{}, ErrNotFound
	}
	r, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return r, Object{
		Key:         key,
		ContentType: contentTypeFor(key, r.Attrs.ContentType),
		Size:        r.Attrs.Size,
		ModTime:     r.Attrs.LastModified,
	}, nil
}

// Prune deletes objects under the prefix updated before cutoff.
func (s *GCSStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	query := &gcs.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, query)
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return removed, nil
		}
		if err != nil {
			return removed, fmt.Errorf("storage: list %s: %w", s.bucket, err)
		}
		if !attrs.Updated.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return removed, fmt.Errorf("storage: delete %s: %w", attrs.Name, err)
		}
		removed++
	}
}
