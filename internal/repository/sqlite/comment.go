package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.CommentRepository = (*CommentStore)(nil)

type CommentStore struct {
	conn *sql.DB
}

const commentColumns = `id, content, owner_id, target_kind, target_id, created_at, updated_at`

func (s *CommentStore) Create(ctx context.Context, c *model.Comment) error {
	t := now()
	c.ID = xid.New().String()
	c.CreatedAt = t
	c.UpdatedAt = t

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Content,
		c.OwnerID,
		string(c.Target.Kind),
		c.Target.ID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound(c.Target.Kind.Label(), c.Target.ID)
		}
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Comment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return c, nil
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}
	return expectOne(result, "Comment", id)
}

// ListByTarget returns the comments on target, oldest first.
func (s *CommentStore) ListByTarget(ctx context.Context, target model.Target) ([]model.Comment, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE target_kind = ? AND target_id = ? ORDER BY created_at, id`,
		string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comment rows: %w", err)
	}
	return comments, nil
}

func scanComment(row scanner) (*model.Comment, error) {
	var (
		c    model.Comment
		kind string
	)
	if err := row.Scan(&c.ID, &c.Content, &c.OwnerID, &kind, &c.Target.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Target.Kind = model.ContentKind(kind)
	return &c, nil
}
