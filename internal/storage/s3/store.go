// Package s3 publishes and fetches dataset files on S3-compatible storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/smartfinance/smartfinance/internal/storage"
)

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

// objectAPI is the subset of the S3 API the dataset store needs.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, meta objectMeta) (storage.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

type objectMeta struct {
	ContentType string
	Table       string
}

// Store keeps dataset files under an optional key prefix inside one bucket.
type Store struct {
	api    objectAPI
	bucket string
	prefix string
	region string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	api, err := newMinioAPI(cfg)
	if err != nil {
		return nil, err
	}
	store, err := newStore(api, cfg.Bucket, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	store.region = strings.TrimSpace(cfg.Region)
	if cfg.AutoCreateBucket {
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func newStore(api objectAPI, bucket, prefix string) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{api: api, bucket: bucket, prefix: keyPrefix(prefix)}, nil
}

// Put uploads one dataset file. The content type falls back to the one
// derived from the key's extension.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if size < 0 {
		return storage.ObjectInfo{}, fmt.Errorf("dataset size is required")
	}
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	meta := objectMeta{ContentType: strings.TrimSpace(opts.ContentType), Table: strings.TrimSpace(opts.Table)}
	if meta.ContentType == "" {
		meta.ContentType = storage.ContentTypeFor(objectKey)
	}
	info, err := s.api.PutObject(ctx, s.bucket, objectKey, body, size, meta)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload dataset %q: %w", objectKey, err)
	}
	if info.ContentType == "" {
		info.ContentType = meta.ContentType
	}
	if info.Table == "" {
		info.Table = meta.Table
	}
	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	body, err := s.api.GetObject(ctx, s.bucket, objectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("download dataset %q: %w", objectKey, err)
	}
	return body, nil
}

// Stat reports size, content type and the published table of a dataset.
func (s *Store) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.api.StatObject(ctx, s.bucket, objectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("inspect dataset %q: %w", objectKey, err)
	}
	return info, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, s.region); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// objectKey places key under the store prefix. Keys that climb out of the
// prefix are rejected.
func (s *Store) objectKey(key string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", fmt.Errorf("dataset key is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid dataset key: %q", key)
	}
	return path.Join(s.prefix, cleaned), nil
}

func keyPrefix(prefix string) string {
	prefix = path.Clean("/" + strings.TrimSpace(prefix))
	return strings.TrimPrefix(prefix, "/")
}
