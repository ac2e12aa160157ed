package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docvault/internal/shared/storage/object"
	"docvault/internal/shared/util"
)

// Store implements object.Store on the local filesystem. Public URLs point
// at the API's /files route, which serves the same directory tree.
type Store struct {
	baseDir       string
	publicBaseURL string
}

// New creates a local object store rooted at baseDir.
func New(baseDir, publicBaseURL string) object.Store {
	return &Store{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Put writes the reader to disk under bucket/key.
func (s *Store) Put(ctx context.Context, bucket, key, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cleanBucket, cleanKey, err := cleanPath(bucket, key)
	if err != nil {
		return 0, err
	}

	dirPath := filepath.Join(s.baseDir, cleanBucket, filepath.Dir(cleanKey))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, cleanBucket, cleanKey)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	_ = contentType
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleanBucket, cleanKey, err := cleanPath(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, cleanBucket, cleanKey))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// PublicURL resolves the URL under which /files serves the object.
func (s *Store) PublicURL(bucket, key string) (string, error) {
	cleanBucket, cleanKey, err := cleanPath(bucket, key)
	if err != nil {
		return "", err
	}
	if s.publicBaseURL == "" {
		return "", fmt.Errorf("public base url not configured")
	}
	return s.publicBaseURL + "/files/" + cleanBucket + "/" + filepath.ToSlash(cleanKey), nil
}

func cleanPath(bucket, key string) (string, string, error) {
	cleanBucket, err := util.SanitizeFileName(bucket)
	if err != nil {
		return "", "", fmt.Errorf("invalid bucket: %w", err)
	}
	cleanKey, err := util.SanitizeObjectKey(key)
	if err != nil {
		return "", "", err
	}
	return cleanBucket, filepath.FromSlash(cleanKey), nil
}

var _ object.Store = (*Store)(nil)
