package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes assets below a directory that the server exposes under
// BaseURL. It is meant for development and tests.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: creating %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir is the directory served for this store.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, key string, u *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("assets: creating directory for %s: %w", key, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("assets: creating %s: %w", key, err)
	}
	if _, err := io.Copy(f, u.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("assets: writing %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("assets: closing %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the file behind url. A file that is already gone is not an
// error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(s.baseURL, url)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("assets: removing %s: %w", key, err)
	}
	return nil
}
