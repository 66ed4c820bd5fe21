package sqlite

import (
	"context"
	"database/sql"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.LikeRepository = (*LikeStore)(nil)

type LikeStore struct {
	conn *sql.DB
}

func (s *LikeStore) Add(ctx context.Context, l *model.Like) (bool, error) {
	e := targetEdge{OwnerID: l.OwnerID, Target: l.Target}
	created, err := addTargetEdge(ctx, s.conn, "likes", &e)
	if err != nil {
		return false, err
	}
	l.ID, l.CreatedAt = e.ID, e.CreatedAt
	return created, nil
}

func (s *LikeStore) Remove(ctx context.Context, ownerID string, target model.Target) (bool, error) {
	return removeTargetEdge(ctx, s.conn, "likes", ownerID, target)
}

// ListByTarget returns the likes of target, oldest first.
func (s *LikeStore) ListByTarget(ctx context.Context, target model.Target) ([]model.Like, error) {
	edges, err := listTargetEdges(ctx, s.conn,
		`SELECT id, owner_id, target_kind, target_id, created_at FROM likes
		 WHERE target_kind = ? AND target_id = ? ORDER BY created_at, id`,
		string(target.Kind), target.ID)
	if err != nil {
		return nil, err
	}

	likes := make([]model.Like, len(edges))
	for i, e := range edges {
		likes[i] = model.Like{ID: e.ID, OwnerID: e.OwnerID, Target: e.Target, CreatedAt: e.CreatedAt}
	}
	return likes, nil
}
