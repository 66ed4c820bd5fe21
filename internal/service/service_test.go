package service

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

	"github.com/stretchr/testify/require"

	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository/sqlite"
)

// recordingStore is an in-memory asset host. live holds the URLs that
// would still resolve.
type recordingStore struct {
	mu      sync.Mutex
	live    map[string]bool
	deleted []string
	failPut bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{live: make(map[string]bool)}
}

func (s *recordingStore) Put(_ context.Context, key string, u *assets.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return "", errors.New("media host down")
	}
	if _, err := io.Copy(io.Discard, u.Body); err != nil {
		return "", err
	}
	url := "https://cdn.test/" + key
	s.live[url] = true
	return url, nil
}

func (s *recordingStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, url)
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *recordingStore) isLive(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[url]
}

func (s *recordingStore) setFailPut(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut = v
}

type testEnv struct {
	db       *sqlite.DB
	store    *recordingStore
	access   *auth.TokenService
	refresh  *auth.TokenService
	auth     *AuthService
	accounts *AccountService
	content  *ContentService
	comments *CommentService
	likes    *LikeService
	follows  *FollowService
	saves    *SaveService
	views    *ViewAssembler
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	access, err := auth.NewTokenService("test-access-secret-0123", 15*time.Minute, auth.AudienceAccess)
	require.NoError(t, err)
	refresh, err := auth.NewTokenService("test-refresh-secret-0123", time.Hour, auth.AudienceRefresh)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	logger := quietLogger()
	store := newRecordingStore()
	relay := assets.NewRelay(store, assets.RelayConfig{FailureThreshold: 1000}, logger)
	views := NewViewAssembler(db.Views(), db.Contents())

	return &testEnv{
		db:       db,
		store:    store,
		access:   access,
		refresh:  refresh,
		auth:     NewAuthService(db.Users(), db.Sessions(), access, refresh, passwords, logger),
		accounts: NewAccountService(db.Users(), db.Contents(), passwords, relay, views, logger),
		content:  NewContentService(db.Users(), db.Contents(), relay, views, logger),
		comments: NewCommentService(db.Comments(), db.Contents(), views, logger),
		likes:    NewLikeService(db.Likes(), db.Contents(), views),
		follows:  NewFollowService(db.Follows(), db.Users(), views, logger),
		saves:    NewSaveService(db.Saves(), db.Contents(), views),
		views:    views,
	}
}

func file(name string) *assets.Upload {
	body := "binary:" + name
	return &assets.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func registerInput(username string, choices ...string) RegisterInput {
	if len(choices) == 0 {
		choices = []string{"painting"}
	}
	return RegisterInput{
		FullName:      "User " + username,
		Email:         username + "@example.com",
		Country:       "Bangladesh",
		AccountType:   "artist",
		ArtField:      "oil",
		Username:      username,
		Bio:           "hello",
		Password:      "secret-" + username,
		ContentChoice: choices,
		Avatar:        file(username + "-avatar.png"),
	}
}

func (e *testEnv) register(t *testing.T, username string, choices ...string) *model.User {
	t.Helper()
	u, err := e.accounts.Register(context.Background(), registerInput(username, choices...))
	require.NoError(t, err)
	return u
}

func (e *testEnv) artwork(t *testing.T, owner *model.User, category string) *model.Content {
	t.Helper()
	c, err := e.content.Create(context.Background(), owner.ID, model.KindArtwork, ContentInput{
		Title:    "Sunset",
		Text:     "oil on canvas",
		Category: category,
		File:     file("sunset.jpg"),
	})
	require.NoError(t, err)
	return c
}
