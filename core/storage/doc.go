// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so that bibliography documents and their
// baselines can live in AWS S3 or a self-hosted MinIO instance. Objects are
// addressed with s3://bucket/object locations (see ParseLocation), or with
// the short form s3:object in the configured bucket (see Expand).
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	bucket, object, ok := storage.ParseLocation("s3://bibliographies/library.bib")
//	err = storage.EnsureBucket(ctx, client, bucket, cfg.Storage.Region)
package storage
