package gcs

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/pkg/helpers"
)

// BlobStore keeps uploaded intern documents in a GCS bucket. The path
// reference handed back (and persisted on the record) is the object path,
// so Release can address the object directly.
type BlobStore struct {
	Client *storage.Client
	Bucket string
}

func NewBlobStore(client *storage.Client, bucket string) *BlobStore {
	return &BlobStore{Client: client, Bucket: bucket}
}

func (b *BlobStore) Store(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	objectPath := filepath.ToSlash(filepath.Join("uploads", uuid.NewString()+ext))
	if err := helpers.UploadObject(ctx, b.Client, b.Bucket, objectPath, contentType, r); err != nil {
		return "", err
	}
	return objectPath, nil
}

func (b *BlobStore) Release(ctx context.Context, pathRef string) error {
	return helpers.DeleteObject(ctx, b.Client, b.Bucket, pathRef)
}

var _ application.BlobStore = (*BlobStore)(nil)
