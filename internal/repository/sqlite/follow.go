package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.FollowRepository = (*FollowStore)(nil)

type FollowStore struct {
	conn *sql.DB
}

// Add links follower to artist. The UNIQUE(artist_id, follower_id)
// constraint makes a repeated or concurrent follow a no-op.
func (s *FollowStore) Add(ctx context.Context, f *model.Follow) (bool, error) {
	id := xid.New().String()
	t := now()

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO follows (id, artist_id, follower_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(artist_id, follower_id) DO NOTHING`,
		id, f.ArtistID, f.FollowerID, t,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperror.NotFound("User", f.ArtistID)
		}
		if isCheckViolation(err) {
			return false, apperror.ValidationFailed("accountId", "You cannot follow yourself")
		}
		return false, fmt.Errorf("sqlite: inserting follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 1 {
		f.ID, f.CreatedAt = id, t
		return true, nil
	}

	err = s.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM follows WHERE artist_id = ? AND follower_id = ?`,
		f.ArtistID, f.FollowerID,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("sqlite: loading existing follow: %w", err)
	}
	return false, nil
}

func (s *FollowStore) Remove(ctx context.Context, artistID, followerID string) (bool, error) {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE artist_id = ? AND follower_id = ?`, artistID, followerID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListFollowers returns the edges pointing at artistID, oldest first.
func (s *FollowStore) ListFollowers(ctx context.Context, artistID string) ([]model.Follow, error) {
	return s.list(ctx, `SELECT id, artist_id, follower_id, created_at FROM follows
		WHERE artist_id = ? ORDER BY created_at, id`, artistID)
}

// ListFollowing returns the edges followerID created, oldest first.
func (s *FollowStore) ListFollowing(ctx context.Context, followerID string) ([]model.Follow, error) {
	return s.list(ctx, `SELECT id, artist_id, follower_id, created_at FROM follows
		WHERE follower_id = ? ORDER BY created_at, id`, followerID)
}

func (s *FollowStore) list(ctx context.Context, query string, arg string) ([]model.Follow, error) {
	rows, err := s.conn.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follows: %w", err)
	}
	defer rows.Close()

	var follows []model.Follow
	for rows.Next() {
		var f model.Follow
		if err := rows.Scan(&f.ID, &f.ArtistID, &f.FollowerID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follow rows: %w", err)
	}
	return follows, nil
}
