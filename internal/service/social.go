package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
	"github.com/sakif/openart/internal/validation"
)

// targetExists resolves t so an edge is never attached to a missing entity
// or to an entity of another kind.
func targetExists(ctx context.Context, contents repository.ContentRepository, t model.Target) error {
	if strings.TrimSpace(t.ID) == "" {
		return apperror.ValidationFailed(string(t.Kind)+"Id", t.Kind.Label()+" id is required")
	}
	_, err := contents.GetByID(ctx, t.Kind, t.ID)
	return err
}

// CommentService adds, lists and deletes comments.
type CommentService struct {
	comments repository.CommentRepository
	contents repository.ContentRepository
	views    *ViewAssembler
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	contents repository.ContentRepository,
	views *ViewAssembler,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{comments: comments, contents: contents, views: views, logger: logger}
}

type CommentInput struct {
	Content string `json:"content" validate:"notblank,max=2000"`
}

func (s *CommentService) Add(ctx context.Context, ownerID string, target model.Target, in CommentInput) (*model.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := targetExists(ctx, s.contents, target); err != nil {
		return nil, err
	}

	c := &model.Comment{Content: strings.TrimSpace(in.Content), OwnerID: ownerID, Target: target}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("comment added",
		slog.String("comment_id", c.ID),
		slog.String("target_kind", string(target.Kind)),
		slog.String("target_id", target.ID),
	)
	return c, nil
}

func (s *CommentService) List(ctx context.Context, requesterID string, target model.Target) ([]model.CommentView, error) {
	if err := targetExists(ctx, s.contents, target); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTarget(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing: %w", err)
	}
	return s.views.Comments(ctx, requesterID, comments)
}

// Delete removes a comment. Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, requesterID, commentID string) error {
	if strings.TrimSpace(commentID) == "" {
		return apperror.ValidationFailed("commentId", "Comment id is required")
	}
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.OwnerID != requesterID {
		return apperror.Forbidden("You are not allowed to delete this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.logger.Info("comment deleted", slog.String("comment_id", commentID))
	return nil
}

type LikeService struct {
	likes    repository.LikeRepository
	contents repository.ContentRepository
	views    *ViewAssembler
}

func NewLikeService(likes repository.LikeRepository, contents repository.ContentRepository, views *ViewAssembler) *LikeService {
	return &LikeService{likes: likes, contents: contents, views: views}
}

// Add likes target. Liking twice is a no-op reported by created=false.
func (s *LikeService) Add(ctx context.Context, ownerID string, target model.Target) (*model.Like, bool, error) {
	if err := targetExists(ctx, s.contents, target); err != nil {
		return nil, false, err
	}
	l := &model.Like{OwnerID: ownerID, Target: target}
	created, err := s.likes.Add(ctx, l)
	if err != nil {
		return nil, false, err
	}
	return l, created, nil
}

// Remove unlikes target. Removing an absent like succeeds with false.
func (s *LikeService) Remove(ctx context.Context, ownerID string, target model.Target) (bool, error) {
	return s.likes.Remove(ctx, ownerID, target)
}

func (s *LikeService) List(ctx context.Context, target model.Target) ([]model.LikeView, error) {
	if err := targetExists(ctx, s.contents, target); err != nil {
		return nil, err
	}
	likes, err := s.likes.ListByTarget(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("service/like: listing: %w", err)
	}
	return s.views.Likes(ctx, likes)
}

// FollowService maintains the follower graph. The caller is always the
// follower; accountID is the artist.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	views   *ViewAssembler
	logger  *slog.Logger
}

func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	views *ViewAssembler,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{follows: follows, users: users, views: views, logger: logger}
}

func (s *FollowService) Add(ctx context.Context, followerID, accountID string) (*model.Follow, bool, error) {
	if err := s.accountExists(ctx, accountID); err != nil {
		return nil, false, err
	}
	if accountID == followerID {
		return nil, false, apperror.ValidationFailed("accountId", "You cannot follow yourself")
	}

	f := &model.Follow{ArtistID: accountID, FollowerID: followerID}
	created, err := s.follows.Add(ctx, f)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("follow added",
			slog.String("artist_id", accountID),
			slog.String("follower_id", followerID),
		)
	}
	return f, created, nil
}

func (s *FollowService) Remove(ctx context.Context, followerID, accountID string) (bool, error) {
	if strings.TrimSpace(accountID) == "" {
		return false, apperror.ValidationFailed("accountId", "Account id is required")
	}
	return s.follows.Remove(ctx, accountID, followerID)
}

func (s *FollowService) Followers(ctx context.Context, accountID string) ([]model.FollowerView, error) {
	if err := s.accountExists(ctx, accountID); err != nil {
		return nil, err
	}
	follows, err := s.follows.ListFollowers(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/follow: listing followers: %w", err)
	}
	return s.views.Followers(ctx, follows)
}

func (s *FollowService) Following(ctx context.Context, accountID string) ([]model.FollowingView, error) {
	if err := s.accountExists(ctx, accountID); err != nil {
		return nil, err
	}
	follows, err := s.follows.ListFollowing(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/follow: listing followings: %w", err)
	}
	return s.views.Following(ctx, follows)
}

func (s *FollowService) accountExists(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return apperror.ValidationFailed("accountId", "Account id is required")
	}
	_, err := s.users.GetByID(ctx, accountID)
	return err
}

// SaveService bookmarks content for the caller.
type SaveService struct {
	saves    repository.SaveRepository
	contents repository.ContentRepository
	views    *ViewAssembler
}

func NewSaveService(saves repository.SaveRepository, contents repository.ContentRepository, views *ViewAssembler) *SaveService {
	return &SaveService{saves: saves, contents: contents, views: views}
}

func (s *SaveService) Add(ctx context.Context, ownerID string, target model.Target) (*model.Save, bool, error) {
	if err := targetExists(ctx, s.contents, target); err != nil {
		return nil, false, err
	}
	sv := &model.Save{OwnerID: ownerID, Target: target}
	created, err := s.saves.Add(ctx, sv)
	if err != nil {
		return nil, false, err
	}
	return sv, created, nil
}

func (s *SaveService) Remove(ctx context.Context, ownerID string, target model.Target) (bool, error) {
	return s.saves.Remove(ctx, ownerID, target)
}

// List returns the caller's saved items of kind as full content views.
func (s *SaveService) List(ctx context.Context, ownerID string, kind model.ContentKind) ([]model.SavedView, error) {
	saves, err := s.saves.ListByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("service/save: listing: %w", err)
	}
	return s.views.Saved(ctx, ownerID, kind, saves)
}
