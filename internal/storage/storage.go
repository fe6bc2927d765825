// internal/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Storage abstracts the object store holding post media. The rest of the
// application only sees keys and URLs, never S3 wire details.
type Storage interface {
	// HeadExists reports whether an object exists under key.
	HeadExists(ctx context.Context, key string) (bool, error)
	// Put uploads data under key and returns its public URL.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// PresignedPutURL returns a URL a client can PUT the object to directly.
	PresignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// Delete removes the object under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URLForKey builds the public URL for an existing key.
	URLForKey(key string) string
}

// UploadKey builds the canonical object key for a user upload:
// users/<username>/uploads/<unix>_<filename>.
func UploadKey(username, filename string, now time.Time) string {
	base := sanitizeFilename(filename)
	return fmt.Sprintf("users/%s/uploads/%d_%s", username, now.Unix(), base)
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "upload"
	}
	return base
}
