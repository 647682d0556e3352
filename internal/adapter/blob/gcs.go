package blob

import (
	"context"
	"errors"
	"fmt"

	"docquiz/internal/domain"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore reads documents from a Google Cloud Storage bucket using
// application default credentials unless opts say otherwise.
type GCSStore struct {
	bucket   *storage.BucketHandle
	maxBytes int64
}

func NewGCSStore(ctx context.Context, bucket string, maxBytes int64, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{bucket: client.Bucket(bucket), maxBytes: maxBytes}, nil
}

func (s *GCSStore) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, path)
		}
		return nil, fmt.Errorf("failed to open GCS object %s: %w", path, err)
	}
	defer r.Close()

	if s.maxBytes > 0 && r.Attrs.Size > s.maxBytes {
		return nil, fmt.Errorf("object %s exceeds %d bytes", path, s.maxBytes)
	}
	return readLimited(r, s.maxBytes, path)
}
