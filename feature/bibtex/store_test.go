package bibtex

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bibsync/core/reconcile"
	"bibsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *reconcile.Snapshot {
	return &reconcile.Snapshot{
		Records: []reconcile.Record{
			{Type: "article", Key: "a", Fields: map[string]string{"title": "Alpha", "year": "2020"}},
		},
	}
}

// TestStore_Local tests saving, checking and loading a document on disk.
func TestStore_Local(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "refs.bib")
	store := NewStore(nil, nil)

	exists, err := store.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, sampleSnapshot(), path))

	exists, err = store.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot().Records, loaded.Records)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

// TestStore_LocalMissing tests that loading a missing file fails.
func TestStore_LocalMissing(t *testing.T) {
	_, err := NewStore(nil, nil).Load(context.Background(), filepath.Join(t.TempDir(), "none.bib"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestStore_ObjectLoad tests loading a document from object storage.
func TestStore_ObjectLoad(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "papers", "lib/refs.bib", mock.Anything).
		Return(io.NopCloser(strings.NewReader("@article{a, title = {Alpha}}")), nil)

	snap, err := NewStore(client, nil).Load(context.Background(), "s3://papers/lib/refs.bib")
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Alpha", snap.Records[0].Fields["title"])
	client.AssertExpectations(t)
}

// TestStore_ObjectSave tests that saving creates the bucket when needed and
// uploads the formatted document.
func TestStore_ObjectSave(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "papers").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "papers", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

	want := Format(sampleSnapshot())
	client.On("PutObject", mock.Anything, "papers", "refs.bib",
		mock.MatchedBy(func(r io.Reader) bool {
			data, err := io.ReadAll(r)
			return err == nil && string(data) == want
		}),
		int64(len(want)),
		minio.PutObjectOptions{ContentType: contentType},
	).Return(minio.UploadInfo{}, nil)

	store := NewStore(client, nil, WithRegion("eu-west-1"))
	require.NoError(t, store.Save(context.Background(), sampleSnapshot(), "s3://papers/refs.bib"))
	client.AssertExpectations(t)
}

// TestStore_ObjectSaveFailure tests that upload errors are wrapped.
func TestStore_ObjectSaveFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "papers").Return(true, nil)
	client.On("PutObject", mock.Anything, "papers", "refs.bib", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection reset"))

	err := NewStore(client, nil).Save(context.Background(), sampleSnapshot(), "s3://papers/refs.bib")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload s3://papers/refs.bib")
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

// TestStore_ObjectExists tests existence checks against object storage.
func TestStore_ObjectExists(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{name: "present", want: true},
		{name: "missing key", err: minio.ErrorResponse{Code: "NoSuchKey"}},
		{name: "missing bucket", err: minio.ErrorResponse{Code: "NoSuchBucket"}},
		{name: "access denied", err: minio.ErrorResponse{Code: "AccessDenied"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mocks.Client)
			client.On("StatObject", mock.Anything, "papers", "refs.bib", mock.Anything).
				Return(minio.ObjectInfo{}, tt.err)

			got, err := NewStore(client, nil).Exists(context.Background(), "s3://papers/refs.bib")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStore_StorageDisabled tests that s3 locations fail without a client.
func TestStore_StorageDisabled(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)

	_, err := store.Load(ctx, "s3://papers/refs.bib")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	err = store.Save(ctx, sampleSnapshot(), "s3://papers/refs.bib")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = store.Exists(ctx, "s3://papers/refs.bib")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

// TestStore_ShortLocation tests that s3:object resolves to the configured bucket.
func TestStore_ShortLocation(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "papers", "refs.bib", mock.Anything).
		Return(minio.ObjectInfo{}, nil)

	exists, err := NewStore(client, nil, WithBucket("papers")).Exists(context.Background(), "s3:refs.bib")
	require.NoError(t, err)
	assert.True(t, exists)
	client.AssertExpectations(t)
}
