package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
)

// storedSession reads the session row of userID directly.
func storedSession(t *testing.T, db *DB, userID string) (hash string, expires time.Time, ok bool) {
	t.Helper()
	var unix int64
	err := db.conn.QueryRow(`SELECT token_hash, expires_at FROM sessions WHERE user_id = ?`, userID).Scan(&hash, &unix)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false
	}
	if err != nil {
		t.Fatalf("reading session: %v", err)
	}
	return hash, time.Unix(unix, 0), true
}

func TestSessionPut(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ayesha")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	if err := db.Sessions().Put(ctx, &model.Session{UserID: u.ID, TokenHash: "h1", ExpiresAt: exp}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// Put again replaces, it does not add a second row.
	if err := db.Sessions().Put(ctx, &model.Session{UserID: u.ID, TokenHash: "h2", ExpiresAt: exp}); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	hash, expires, ok := storedSession(t, db, u.ID)
	if !ok || hash != "h2" || !expires.Equal(exp) {
		t.Errorf("stored session = %q %v %v; want h2 %v", hash, expires, ok, exp)
	}
}

func TestSessionPut_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.Sessions().Put(context.Background(), &model.Session{UserID: "nobody", TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Put() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRotate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ayesha")
	exp := time.Now().Add(time.Hour)
	_ = db.Sessions().Put(ctx, &model.Session{UserID: u.ID, TokenHash: "old", ExpiresAt: exp})

	ok, err := db.Sessions().Rotate(ctx, u.ID, "old", "new", exp)
	if err != nil || !ok {
		t.Fatalf("Rotate(old) = %v, %v; want true", ok, err)
	}

	// The old token is now stale.
	ok, err = db.Sessions().Rotate(ctx, u.ID, "old", "newer", exp)
	if err != nil || ok {
		t.Fatalf("Rotate(stale) = %v, %v; want false", ok, err)
	}
}

func TestSessionRotate_Expired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ayesha")
	_ = db.Sessions().Put(ctx, &model.Session{UserID: u.ID, TokenHash: "old", ExpiresAt: time.Now().Add(-time.Minute)})

	ok, err := db.Sessions().Rotate(ctx, u.ID, "old", "new", time.Now().Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("Rotate(expired) = %v, %v; want false", ok, err)
	}
}

func TestSessionRotate_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ayesha")
	exp := time.Now().Add(time.Hour)
	_ = db.Sessions().Put(ctx, &model.Session{UserID: u.ID, TokenHash: "old", ExpiresAt: exp})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := db.Sessions().Rotate(ctx, u.ID, "old", "new-"+string(rune('a'+i)), exp)
			if err != nil {
				t.Errorf("Rotate() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("concurrent rotations succeeded %d times, want 1", wins)
	}
}

func TestSessionDeleteAndPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "alive")
	b := createTestUser(t, db, "stale")
	_ = db.Sessions().Put(ctx, &model.Session{UserID: a.ID, TokenHash: "a", ExpiresAt: time.Now().Add(time.Hour)})
	_ = db.Sessions().Put(ctx, &model.Session{UserID: b.ID, TokenHash: "b", ExpiresAt: time.Now().Add(-time.Hour)})

	n, err := db.Sessions().PurgeExpired(ctx, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired() = %d, %v; want 1", n, err)
	}
	if _, _, ok := storedSession(t, db, b.ID); ok {
		t.Error("expired session still present")
	}

	if err := db.Sessions().Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := db.Sessions().Delete(ctx, a.ID); err != nil {
		t.Errorf("Delete() of absent session error = %v", err)
	}
}
