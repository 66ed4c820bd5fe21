// Package assets relays uploaded files to the media host and retires them
// when the owning record goes away.
//
// A Store is the host itself (S3-compatible bucket or local directory). The
// Relay wraps a Store with a per-call timeout and a circuit breaker and
// decides which failures reach the caller.
package assets

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Upload is a staged file ready to be relayed.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Store puts objects under a key and deletes them by the URL Put returned.
type Store interface {
	Put(ctx context.Context, key string, u *Upload) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// ErrForeignURL is returned by Delete for a URL the store did not issue.
var ErrForeignURL = errors.New("assets: url does not belong to this store")

// keyFromURL strips base from url and returns a clean relative key.
func keyFromURL(base, url string) (string, error) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") || path.Clean("/"+key) != "/"+key {
		return "", ErrForeignURL
	}
	return key, nil
}
