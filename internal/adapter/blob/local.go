package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"docquiz/internal/domain"
)

// LocalStore serves documents from a directory. Used in development and by quizctl.
type LocalStore struct {
	root     string
	maxBytes int64
}

func NewLocalStore(root string, maxBytes int64) *LocalStore {
	return &LocalStore{root: root, maxBytes: maxBytes}
}

func (s *LocalStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Rooting the path before Clean keeps "../" from escaping the store.
	full := filepath.Join(s.root, filepath.Clean("/"+path))

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return readLimited(f, s.maxBytes, path)
}
