package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"docquiz/internal/config"
	"docquiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestLocalStore_Download(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "user-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "user-1", "notes.txt"), []byte("hello"), 0o600))

	store := NewLocalStore(root, 1024)

	data, err := store.Download(context.Background(), "user-1/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = store.Download(context.Background(), "user-1/missing.txt")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestLocalStore_StaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "store")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o600))

	_, err := NewLocalStore(root, 0).Download(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestLocalStore_SizeLimit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte(strings.Repeat("x", 20)), 0o600))

	_, err := NewLocalStore(root, 10).Download(context.Background(), "big.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 10 bytes")
}

func newTestS3(t *testing.T, handler http.HandlerFunc) *S3Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), config.StorageConfig{
		Bucket:           "docs",
		Region:           "us-east-1",
		Endpoint:         server.URL,
		AccessKeyID:      "test",
		SecretAccessKey:  "test",
		MaxDocumentBytes: 1024,
	})
	require.NoError(t, err)
	return store
}

func TestS3Store_Download(t *testing.T) {
	var gotPath string
	store := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("document body"))
	})

	data, err := store.Download(context.Background(), "user-1/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "document body", string(data))
	assert.Equal(t, "/docs/user-1/doc.txt", gotPath)
}

func TestS3Store_NoSuchKey(t *testing.T) {
	store := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	})

	_, err := store.Download(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func newTestGCS(t *testing.T, maxBytes int64, handler http.HandlerFunc) *GCSStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewGCSStore(context.Background(), "docs", maxBytes,
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return store
}

func serveObject(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("X-Goog-Generation", "1")
		w.Header().Set("X-Goog-Metageneration", "1")
		_, _ = w.Write([]byte(body))
	}
}

func TestGCSStore_Download(t *testing.T) {
	var gotPath string
	handler := serveObject("document body")
	store := newTestGCS(t, 1024, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		handler(w, r)
	})

	data, err := store.Download(context.Background(), "user-1/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "document body", string(data))
	assert.Contains(t, gotPath, "docs")
	assert.Contains(t, gotPath, "user-1/doc.txt")
}

func TestGCSStore_ObjectNotExist(t *testing.T) {
	store := newTestGCS(t, 1024, serveObject("unused"))

	_, err := store.Download(context.Background(), "user-1/missing.pdf")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestGCSStore_SizeLimit(t *testing.T) {
	store := newTestGCS(t, 10, serveObject(strings.Repeat("x", 64)))

	_, err := store.Download(context.Background(), "user-1/big.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 10 bytes")
	assert.NotErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	store, err := New(context.Background(), config.StorageConfig{Backend: "local", LocalRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}
