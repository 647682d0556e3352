// Package blob implements domain.BlobStore over S3-compatible storage, Google
// Cloud Storage and a local directory.
package blob

import (
	"context"
	"fmt"
	"io"

	"docquiz/internal/config"
	"docquiz/internal/domain"

	"google.golang.org/api/option"
)

// New builds the blob store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (domain.BlobStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		var opts []option.ClientOption
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		}
		return NewGCSStore(ctx, cfg.Bucket, cfg.MaxDocumentBytes, opts...)
	case "local", "":
		return NewLocalStore(cfg.LocalRoot, cfg.MaxDocumentBytes), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// readLimited reads r fully, failing once more than max bytes arrive.
// A non-positive max disables the check.
func readLimited(r io.Reader, max int64, path string) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("object %s exceeds %d bytes", path, max)
	}
	return data, nil
}
