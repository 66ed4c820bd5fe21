// Package repository declares the storage contracts the services depend on.
// internal/repository/sqlite is the only implementation.
package repository

import (
	"context"
	"time"

	"github.com/sakif/openart/internal/model"
)

// UserRepository stores accounts. Create and Update return an
// apperror.ErrConflict error when email or username is taken.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository stores the single active refresh token of each user.
type SessionRepository interface {
	// Put creates or replaces the session of userID.
	Put(ctx context.Context, s *model.Session) error
	// Rotate replaces the token hash only if the stored hash equals oldHash
	// and the session has not expired. It reports whether it did.
	Rotate(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContentRepository stores artworks, artblogs and announcements. Lookups are
// scoped to a kind so an artblog id never resolves as an artwork.
type ContentRepository interface {
	Create(ctx context.Context, c *model.Content) error
	GetByID(ctx context.Context, kind model.ContentKind, id string) (*model.Content, error)
	// Update writes title, text, category and asset.
	Update(ctx context.Context, c *model.Content) error
	// Delete removes the entity; its comments, likes and saves go with it.
	Delete(ctx context.Context, kind model.ContentKind, id string) error
	ListByCategories(ctx context.Context, kind model.ContentKind, categories []string) ([]model.Content, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Content, error)
	ListByIDs(ctx context.Context, kind model.ContentKind, ids []string) ([]model.Content, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	ListByTarget(ctx context.Context, target model.Target) ([]model.Comment, error)
}

// LikeRepository, FollowRepository and SaveRepository add edges
// idempotently: Add reports created=false and fills in the existing edge when
// the pair is already linked. Remove reports whether an edge was deleted.
type LikeRepository interface {
	Add(ctx context.Context, l *model.Like) (created bool, err error)
	Remove(ctx context.Context, ownerID string, target model.Target) (bool, error)
	ListByTarget(ctx context.Context, target model.Target) ([]model.Like, error)
}

type FollowRepository interface {
	Add(ctx context.Context, f *model.Follow) (created bool, err error)
	Remove(ctx context.Context, artistID, followerID string) (bool, error)
	ListFollowers(ctx context.Context, artistID string) ([]model.Follow, error)
	ListFollowing(ctx context.Context, followerID string) ([]model.Follow, error)
}

type SaveRepository interface {
	Add(ctx context.Context, s *model.Save) (created bool, err error)
	Remove(ctx context.Context, ownerID string, target model.Target) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, kind model.ContentKind) ([]model.Save, error)
}

// ViewRepository holds the batch read primitives the view assembler builds
// on. Every method takes a whole id set and answers in one query; an empty
// set yields an empty result without touching the store.
type ViewRepository interface {
	// CountEdges counts edge rows per target id. Ids with no edges are absent.
	CountEdges(ctx context.Context, edge model.EdgeKind, targetIDs []string) (map[string]int, error)
	// EdgesOwnedBy reports which of targetIDs ownerID has an edge to.
	EdgesOwnedBy(ctx context.Context, edge model.EdgeKind, ownerID string, targetIDs []string) (map[string]bool, error)
	PublicProfiles(ctx context.Context, userIDs []string) (map[string]model.PublicProfile, error)
	FollowCounts(ctx context.Context, userID string) (followers, following int, err error)
	IsFollowing(ctx context.Context, artistID, followerID string) (bool, error)
}
