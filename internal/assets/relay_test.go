package assets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records calls and fails when err is set.
type fakeStore struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	err     error
}

func (f *fakeStore) Put(_ context.Context, key string, u *Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(u.Body); err != nil {
		return "", err
	}
	f.puts = append(f.puts, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, url)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func upload(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestRelayUpload_NamesKeyByFolderAndExtension(t *testing.T) {
	store := &fakeStore{}
	r := NewRelay(store, RelayConfig{}, quietLogger())

	url, err := r.Upload(context.Background(), FolderAvatars, upload("Me.PNG", "pixels"))
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	key := store.puts[0]
	assert.True(t, strings.HasPrefix(key, "avatars/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "https://cdn.test/"+key, url)
}

func TestRelayUpload_RewindsConsumedBody(t *testing.T) {
	store := &fakeStore{}
	r := NewRelay(store, RelayConfig{}, quietLogger())
	u := upload("a.png", "pixels")
	_, _ = io.ReadAll(u.Body)

	_, err := r.Upload(context.Background(), FolderArtworks, u)
	assert.NoError(t, err)
}

func TestRelayUpload_Nil(t *testing.T) {
	r := NewRelay(&fakeStore{}, RelayConfig{}, quietLogger())
	_, err := r.Upload(context.Background(), FolderArtworks, nil)
	assert.Error(t, err)
}

func TestRelayUpload_BreakerOpensAfterFailures(t *testing.T) {
	boom := errors.New("host down")
	store := &fakeStore{err: boom}
	r := NewRelay(store, RelayConfig{FailureThreshold: 2, OpenTimeout: time.Minute}, quietLogger())

	for i := 0; i < 2; i++ {
		_, err := r.Upload(context.Background(), FolderArtworks, upload("a.png", "x"))
		assert.ErrorIs(t, err, boom)
	}

	// Open breaker: the store is not called and the caller sees ErrUnavailable.
	store.err = nil
	_, err := r.Upload(context.Background(), FolderArtworks, upload("a.png", "x"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, store.puts)
}

func TestRelayRetire(t *testing.T) {
	store := &fakeStore{}
	r := NewRelay(store, RelayConfig{}, quietLogger())

	r.Retire(context.Background(), "")
	assert.Empty(t, store.deletes, "empty url must be ignored")

	r.Retire(context.Background(), "https://cdn.test/artworks/a.png")
	assert.Equal(t, []string{"https://cdn.test/artworks/a.png"}, store.deletes)
}

func TestRelayRetire_ErrorIsSwallowed(t *testing.T) {
	store := &fakeStore{err: errors.New("host down")}
	r := NewRelay(store, RelayConfig{}, quietLogger())

	// Must not panic or block; there is nothing to return.
	r.Retire(context.Background(), "https://cdn.test/artworks/a.png")
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		url     string
		wantKey string
		wantErr bool
	}{
		{"https://cdn.test/b/avatars/x.png", "avatars/x.png", false},
		{"https://elsewhere/avatars/x.png", "", true},
		{"https://cdn.test/b/../etc/passwd", "", true},
		{"https://cdn.test/b/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, err := keyFromURL("https://cdn.test/b", tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrForeignURL)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
