package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
)

// targetEdge is the shared row shape of likes and saves.
type targetEdge struct {
	ID        string
	OwnerID   string
	Target    model.Target
	CreatedAt time.Time
}

// addTargetEdge inserts an (owner, target) row into table unless one exists.
// On a duplicate it loads the existing row into e and reports created=false.
func addTargetEdge(ctx context.Context, conn *sql.DB, table string, e *targetEdge) (bool, error) {
	id := xid.New().String()
	t := now()

	result, err := conn.ExecContext(ctx,
		`INSERT INTO `+table+` (id, owner_id, target_kind, target_id, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id, target_id) DO NOTHING`,
		id, e.OwnerID, string(e.Target.Kind), e.Target.ID, t,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperror.NotFound(e.Target.Kind.Label(), e.Target.ID)
		}
		return false, fmt.Errorf("sqlite: inserting into %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 1 {
		e.ID = id
		e.CreatedAt = t
		return true, nil
	}

	err = conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM `+table+` WHERE owner_id = ? AND target_id = ?`,
		e.OwnerID, e.Target.ID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("sqlite: loading existing %s row: %w", table, err)
	}
	return false, nil
}

func removeTargetEdge(ctx context.Context, conn *sql.DB, table, ownerID string, target model.Target) (bool, error) {
	result, err := conn.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE owner_id = ? AND target_kind = ? AND target_id = ?`,
		ownerID, string(target.Kind), target.ID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rows > 0, nil
}

func listTargetEdges(ctx context.Context, conn *sql.DB, query string, args ...any) ([]targetEdge, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing edges: %w", err)
	}
	defer rows.Close()

	var edges []targetEdge
	for rows.Next() {
		var (
			e    targetEdge
			kind string
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &kind, &e.Target.ID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning edge row: %w", err)
		}
		e.Target.Kind = model.ContentKind(kind)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating edge rows: %w", err)
	}
	return edges, nil
}
