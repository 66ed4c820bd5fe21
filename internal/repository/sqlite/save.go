package sqlite

import (
	"context"
	"database/sql"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.SaveRepository = (*SaveStore)(nil)

type SaveStore struct {
	conn *sql.DB
}

func (s *SaveStore) Add(ctx context.Context, sv *model.Save) (bool, error) {
	e := targetEdge{OwnerID: sv.OwnerID, Target: sv.Target}
	created, err := addTargetEdge(ctx, s.conn, "saves", &e)
	if err != nil {
		return false, err
	}
	sv.ID, sv.CreatedAt = e.ID, e.CreatedAt
	return created, nil
}

func (s *SaveStore) Remove(ctx context.Context, ownerID string, target model.Target) (bool, error) {
	return removeTargetEdge(ctx, s.conn, "saves", ownerID, target)
}

// ListByOwner returns ownerID's saves of one kind, most recent first.
func (s *SaveStore) ListByOwner(ctx context.Context, ownerID string, kind model.ContentKind) ([]model.Save, error) {
	edges, err := listTargetEdges(ctx, s.conn,
		`SELECT id, owner_id, target_kind, target_id, created_at FROM saves
		 WHERE owner_id = ? AND target_kind = ? ORDER BY created_at DESC, id DESC`,
		ownerID, string(kind))
	if err != nil {
		return nil, err
	}

	saves := make([]model.Save, len(edges))
	for i, e := range edges {
		saves[i] = model.Save{ID: e.ID, OwnerID: e.OwnerID, Target: e.Target, CreatedAt: e.CreatedAt}
	}
	return saves, nil
}
