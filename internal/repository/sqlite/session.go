package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore keeps one row per logged-in user. expires_at is stored as
// unix seconds so expiry comparisons are numeric.
type SessionStore struct {
	conn *sql.DB
}

func (s *SessionStore) Put(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (user_id, token_hash, expires_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		sess.UserID,
		sess.TokenHash,
		sess.ExpiresAt.Unix(),
		sess.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("User", sess.UserID)
		}
		return fmt.Errorf("sqlite: saving session for user %s: %w", sess.UserID, err)
	}
	return nil
}

// Rotate is a compare-and-swap on token_hash. Two concurrent refreshes with
// the same token cannot both succeed.
func (s *SessionStore) Rotate(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	t := now()
	result, err := s.conn.ExecContext(ctx,
		`UPDATE sessions SET token_hash = ?, expires_at = ?, updated_at = ?
		 WHERE user_id = ? AND token_hash = ? AND expires_at > ?`,
		newHash,
		expiresAt.Unix(),
		t,
		userID,
		oldHash,
		t.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: rotating session for user %s: %w", userID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rows == 1, nil
}

// Delete is a no-op for a user without a session.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: deleting session for user %s: %w", userID, err)
	}
	return nil
}

// PurgeExpired deletes sessions that expired before t and returns how many.
func (s *SessionStore) PurgeExpired(ctx context.Context, t time.Time) (int64, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, t.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
