package bibtex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bibsync/core/reconcile"
	"bibsync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// contentType is the MIME type used for documents written to object storage.
const contentType = "application/x-bibtex"

// ErrStorageDisabled is returned for s3:// locations when no storage client is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// Store loads and saves .bib documents on the local file system or in object
// storage. It implements reconcile.Loader and reconcile.Writer.
type Store struct {
	client storage.Client
	region string
	bucket string
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRegion sets the region used when a bucket has to be created.
func WithRegion(region string) StoreOption {
	return func(s *Store) { s.region = region }
}

// WithBucket sets the bucket used for short s3:object locations.
func WithBucket(bucket string) StoreOption {
	return func(s *Store) { s.bucket = bucket }
}

// NewStore creates a store. client may be nil, in which case only local paths work.
func NewStore(client storage.Client, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{client: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and parses the document at location.
func (s *Store) Load(ctx context.Context, location string) (*reconcile.Snapshot, error) {
	location = storage.Expand(location, s.bucket)
	r, err := s.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	snap, err := Parse(r)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Document loaded",
		zap.String("location", location),
		zap.Int("records", len(snap.Records)),
		zap.Int("definitions", len(snap.Definitions)),
	)
	return snap, nil
}

// Save serializes snapshot and writes it to destination. Local files are
// replaced atomically.
func (s *Store) Save(ctx context.Context, snapshot *reconcile.Snapshot, destination string) error {
	destination = storage.Expand(destination, s.bucket)
	data := []byte(Format(snapshot))

	if bucket, object, ok := storage.ParseLocation(destination); ok {
		if s.client == nil {
			return ErrStorageDisabled
		}
		if err := storage.EnsureBucket(ctx, s.client, bucket, s.region); err != nil {
			return err
		}
		_, err := s.client.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", destination, err)
		}
		return nil
	}

	return writeFileAtomic(destination, data)
}

// Exists reports whether a document exists at location.
func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	location = storage.Expand(location, s.bucket)
	if bucket, object, ok := storage.ParseLocation(location); ok {
		if s.client == nil {
			return false, ErrStorageDisabled
		}
		_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
		if err != nil {
			if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
				return false, nil
			}
			return false, fmt.Errorf("failed to stat %s: %w", location, err)
		}
		return true, nil
	}

	_, err := os.Stat(location)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if bucket, object, ok := storage.ParseLocation(location); ok {
		if s.client == nil {
			return nil, ErrStorageDisabled
		}
		r, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", location, err)
		}
		return r, nil
	}
	return os.Open(location)
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
