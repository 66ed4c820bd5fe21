package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.ContentRepository = (*ContentStore)(nil)

// ContentStore keeps all three content kinds in one table, discriminated by
// the kind column.
type ContentStore struct {
	conn *sql.DB
}

const contentColumns = `id, kind, title, description, body, category, asset_url, owner_id, created_at, updated_at`

func (s *ContentStore) Create(ctx context.Context, c *model.Content) error {
	t := now()
	c.ID = xid.New().String()
	c.CreatedAt = t
	c.UpdatedAt = t

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO contents (`+contentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		string(c.Kind),
		c.Title,
		c.Description,
		c.Body,
		c.Category,
		c.AssetURL,
		c.OwnerID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("User", c.OwnerID)
		}
		return fmt.Errorf("sqlite: inserting %s: %w", c.Kind, err)
	}
	return nil
}

func (s *ContentStore) GetByID(ctx context.Context, kind model.ContentKind, id string) (*model.Content, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id = ? AND kind = ?`, id, string(kind))
	c, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound(kind.Label(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", kind, id, err)
	}
	return c, nil
}

func (s *ContentStore) Update(ctx context.Context, c *model.Content) error {
	c.UpdatedAt = now()
	result, err := s.conn.ExecContext(ctx,
		`UPDATE contents SET title = ?, description = ?, body = ?, category = ?, asset_url = ?, updated_at = ?
		 WHERE id = ? AND kind = ?`,
		c.Title,
		c.Description,
		c.Body,
		c.Category,
		c.AssetURL,
		c.UpdatedAt,
		c.ID,
		string(c.Kind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s %s: %w", c.Kind, c.ID, err)
	}
	return expectOne(result, c.Kind.Label(), c.ID)
}

func (s *ContentStore) Delete(ctx context.Context, kind model.ContentKind, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM contents WHERE id = ? AND kind = ?`, id, string(kind))
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", kind, id, err)
	}
	return expectOne(result, kind.Label(), id)
}

// ListByCategories returns every entity of kind whose category is in
// categories, newest first.
func (s *ContentStore) ListByCategories(ctx context.Context, kind model.ContentKind, categories []string) ([]model.Content, error) {
	return s.listIn(ctx, kind, "category", unique(categories))
}

// ListByOwner returns all content of ownerID across kinds, newest first.
func (s *ContentStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Content, error) {
	return s.list(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID)
}

// ListByIDs returns the entities of kind among ids, newest first. Unknown
// ids are skipped.
func (s *ContentStore) ListByIDs(ctx context.Context, kind model.ContentKind, ids []string) ([]model.Content, error) {
	return s.listIn(ctx, kind, "id", unique(ids))
}

// listIn selects the content of kind whose column is in values, one query
// per batch, and merges the batches newest first. column is always a
// constant from this file.
func (s *ContentStore) listIn(ctx context.Context, kind model.ContentKind, column string, values []string) ([]model.Content, error) {
	items := []model.Content{}
	for _, batch := range batches(values) {
		in, args := inClause(batch)
		args = append([]any{string(kind)}, args...)
		found, err := s.list(ctx,
			`SELECT `+contentColumns+` FROM contents
			 WHERE kind = ? AND `+column+` IN (`+in+`)
			 ORDER BY created_at DESC, id DESC`,
			args...)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	slices.SortStableFunc(items, func(a, b model.Content) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return items, nil
}

func (s *ContentStore) list(ctx context.Context, query string, args ...any) ([]model.Content, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contents: %w", err)
	}
	defer rows.Close()

	items := []model.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning content row: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating content rows: %w", err)
	}
	return items, nil
}

func scanContent(row scanner) (*model.Content, error) {
	var (
		c    model.Content
		kind string
	)
	err := row.Scan(
		&c.ID,
		&kind,
		&c.Title,
		&c.Description,
		&c.Body,
		&c.Category,
		&c.AssetURL,
		&c.OwnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Kind = model.ContentKind(kind)
	return &c, nil
}

// expectOne maps a zero-row write to a not-found error.
func expectOne(result sql.Result, resource, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
