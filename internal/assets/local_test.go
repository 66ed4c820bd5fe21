package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8000/static/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "artworks/a.png", upload("a.png", "pixels"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/static/artworks/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "artworks", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, "artworks", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// Already gone is fine.
	assert.NoError(t, s.Delete(context.Background(), url))
}

func TestLocalStore_DeleteForeignURL(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8000/static")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(context.Background(), "https://res.cloudinary.com/x.png"), ErrForeignURL)
}
