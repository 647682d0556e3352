package domain

import (
	"context"
	"errors"
	"time"
)

// Document is an uploaded file. Its bytes live in the blob store under StoragePath.
type Document struct {
	ID          string
	OwnerID     string
	StoragePath string
	MimeType    string
	Filename    string
	FileSize    int64
	CreatedAt   time.Time
}

// ErrBlobNotFound is returned by a BlobStore when the object does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore reads document bytes from object storage.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
}
