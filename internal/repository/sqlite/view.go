package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

var _ repository.ViewRepository = (*ViewStore)(nil)

// ViewStore answers the batch questions behind every denormalized response.
type ViewStore struct {
	conn *sql.DB
}

// edgeTables is the only source of table names interpolated into SQL.
var edgeTables = map[model.EdgeKind]string{
	model.EdgeLike:    "likes",
	model.EdgeComment: "comments",
	model.EdgeSave:    "saves",
}

func edgeTable(edge model.EdgeKind) (string, error) {
	t, ok := edgeTables[edge]
	if !ok {
		return "", fmt.Errorf("sqlite: unknown edge kind %q", edge)
	}
	return t, nil
}

func (s *ViewStore) CountEdges(ctx context.Context, edge model.EdgeKind, targetIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	ids := unique(targetIDs)
	if len(ids) == 0 {
		return counts, nil
	}
	table, err := edgeTable(edge)
	if err != nil {
		return nil, err
	}

	for _, batch := range batches(ids) {
		if err := s.countBatch(ctx, table, batch, counts); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func (s *ViewStore) countBatch(ctx context.Context, table string, ids []string, counts map[string]int) error {
	in, args := inClause(ids)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT target_id, COUNT(*) FROM `+table+` WHERE target_id IN (`+in+`) GROUP BY target_id`,
		args...)
	if err != nil {
		return fmt.Errorf("sqlite: counting %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return fmt.Errorf("sqlite: scanning %s count: %w", table, err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating %s counts: %w", table, err)
	}
	return nil
}

func (s *ViewStore) EdgesOwnedBy(ctx context.Context, edge model.EdgeKind, ownerID string, targetIDs []string) (map[string]bool, error) {
	owned := make(map[string]bool)
	ids := unique(targetIDs)
	if len(ids) == 0 || ownerID == "" {
		return owned, nil
	}
	table, err := edgeTable(edge)
	if err != nil {
		return nil, err
	}

	for _, batch := range batches(ids) {
		if err := s.ownedBatch(ctx, table, ownerID, batch, owned); err != nil {
			return nil, err
		}
	}
	return owned, nil
}

func (s *ViewStore) ownedBatch(ctx context.Context, table, ownerID string, ids []string, owned map[string]bool) error {
	in, args := inClause(ids)
	args = append([]any{ownerID}, args...)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT DISTINCT target_id FROM `+table+` WHERE owner_id = ? AND target_id IN (`+in+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("sqlite: testing %s membership: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("sqlite: scanning %s membership: %w", table, err)
		}
		owned[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating %s membership: %w", table, err)
	}
	return nil
}

// PublicProfiles loads the public projection of each existing user in
// userIDs. It never selects credential columns.
func (s *ViewStore) PublicProfiles(ctx context.Context, userIDs []string) (map[string]model.PublicProfile, error) {
	profiles := make(map[string]model.PublicProfile)
	ids := unique(userIDs)
	if len(ids) == 0 {
		return profiles, nil
	}

	for _, batch := range batches(ids) {
		if err := s.profileBatch(ctx, batch, profiles); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

func (s *ViewStore) profileBatch(ctx context.Context, ids []string, profiles map[string]model.PublicProfile) error {
	in, args := inClause(ids)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, full_name, email, country, account_type, art_field, username, bio, avatar, cover_image
		 FROM users WHERE id IN (`+in+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p           model.PublicProfile
			accountType string
		)
		err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Country, &accountType,
			&p.ArtField, &p.Username, &p.Bio, &p.Avatar, &p.CoverImage)
		if err != nil {
			return fmt.Errorf("sqlite: scanning profile: %w", err)
		}
		p.AccountType = model.AccountType(accountType)
		profiles[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating profiles: %w", err)
	}
	return nil
}

func (s *ViewStore) FollowCounts(ctx context.Context, userID string) (int, int, error) {
	var followers, following int
	err := s.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE artist_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?)`,
		userID, userID,
	).Scan(&followers, &following)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting follows of %s: %w", userID, err)
	}
	return followers, following, nil
}

func (s *ViewStore) IsFollowing(ctx context.Context, artistID, followerID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE artist_id = ? AND follower_id = ?)`,
		artistID, followerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", followerID, artistID, err)
	}
	return exists, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
