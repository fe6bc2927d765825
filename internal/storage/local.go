// internal/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps objects on the local filesystem. Used in development
// when S3 is not configured; served back through the /uploads static route.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (l *LocalStorage) path(key string) string {
	return filepath.Join(l.dir, filepath.FromSlash(key))
}

func (l *LocalStorage) HeadExists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (l *LocalStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	dest := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return l.URLForKey(key), nil
}

// PresignedPutURL has no real equivalent on disk; the direct upload endpoint
// is the supported path in development.
func (l *LocalStorage) PresignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", fmt.Errorf("presigned uploads require S3 storage")
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *LocalStorage) URLForKey(key string) string {
	return l.baseURL + "/uploads/" + key
}
