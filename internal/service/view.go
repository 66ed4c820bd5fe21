package service

import (
	"context"
	"fmt"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

// ViewAssembler builds every denormalized read shape.
//
// For a batch of root entities it issues a fixed set of queries (counts,
// requester membership, owner profiles) over the whole id set and merges the
// results in memory, so a feed of 200 artworks costs the same number of
// round trips as a single artwork. Entities with no edges get zero counts
// and false flags.
type ViewAssembler struct {
	views    repository.ViewRepository
	contents repository.ContentRepository
}

func NewViewAssembler(views repository.ViewRepository, contents repository.ContentRepository) *ViewAssembler {
	return &ViewAssembler{views: views, contents: contents}
}

// Contents annotates items for requesterID, preserving order.
func (a *ViewAssembler) Contents(ctx context.Context, requesterID string, items []model.Content) ([]model.ContentView, error) {
	out := make([]model.ContentView, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]string, len(items))
	owners := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
		owners[i] = c.OwnerID
	}

	likes, err := a.views.CountEdges(ctx, model.EdgeLike, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: counting likes: %w", err)
	}
	comments, err := a.views.CountEdges(ctx, model.EdgeComment, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: counting comments: %w", err)
	}
	liked, err := a.views.EdgesOwnedBy(ctx, model.EdgeLike, requesterID, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: resolving likes of requester: %w", err)
	}
	saved, err := a.views.EdgesOwnedBy(ctx, model.EdgeSave, requesterID, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: resolving saves of requester: %w", err)
	}
	profiles, err := a.views.PublicProfiles(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading owners: %w", err)
	}

	for i, c := range items {
		out[i] = model.ContentView{
			Content:       c,
			Owner:         profiles[c.OwnerID],
			LikesCount:    likes[c.ID],
			CommentsCount: comments[c.ID],
			IsLiked:       liked[c.ID],
			IsSaved:       saved[c.ID],
		}
	}
	return out, nil
}

// Content is Contents for a single entity.
func (a *ViewAssembler) Content(ctx context.Context, requesterID string, c *model.Content) (*model.ContentView, error) {
	views, err := a.Contents(ctx, requesterID, []model.Content{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Comments flags each comment owned by requesterID as deletable.
func (a *ViewAssembler) Comments(ctx context.Context, requesterID string, comments []model.Comment) ([]model.CommentView, error) {
	owners := make([]string, len(comments))
	for i, c := range comments {
		owners[i] = c.OwnerID
	}
	profiles, err := a.views.PublicProfiles(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading commenters: %w", err)
	}

	out := make([]model.CommentView, len(comments))
	for i, c := range comments {
		out[i] = model.CommentView{
			ID:           c.ID,
			Content:      c.Content,
			Owner:        profiles[c.OwnerID],
			DeletionFlag: c.OwnerID == requesterID,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
	}
	return out, nil
}

func (a *ViewAssembler) Likes(ctx context.Context, likes []model.Like) ([]model.LikeView, error) {
	owners := make([]string, len(likes))
	for i, l := range likes {
		owners[i] = l.OwnerID
	}
	profiles, err := a.views.PublicProfiles(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading likers: %w", err)
	}

	out := make([]model.LikeView, len(likes))
	for i, l := range likes {
		out[i] = model.LikeView{ID: l.ID, LikedBy: profiles[l.OwnerID]}
	}
	return out, nil
}

func (a *ViewAssembler) Followers(ctx context.Context, follows []model.Follow) ([]model.FollowerView, error) {
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FollowerID
	}
	profiles, err := a.views.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading followers: %w", err)
	}

	out := make([]model.FollowerView, len(follows))
	for i, f := range follows {
		out[i] = model.FollowerView{ID: f.ID, Follower: profiles[f.FollowerID]}
	}
	return out, nil
}

func (a *ViewAssembler) Following(ctx context.Context, follows []model.Follow) ([]model.FollowingView, error) {
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.ArtistID
	}
	profiles, err := a.views.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading followed artists: %w", err)
	}

	out := make([]model.FollowingView, len(follows))
	for i, f := range follows {
		out[i] = model.FollowingView{ID: f.ID, Artist: profiles[f.ArtistID]}
	}
	return out, nil
}

// Saved resolves saves of a single kind to full content views. A save whose
// target has vanished is dropped.
func (a *ViewAssembler) Saved(ctx context.Context, requesterID string, kind model.ContentKind, saves []model.Save) ([]model.SavedView, error) {
	ids := make([]string, len(saves))
	for i, s := range saves {
		ids[i] = s.Target.ID
	}
	items, err := a.contents.ListByIDs(ctx, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("service/view: loading saved %ss: %w", kind, err)
	}
	views, err := a.Contents(ctx, requesterID, items)
	if err != nil {
		return nil, err
	}

	byTarget := make(map[model.Target]model.ContentView, len(views))
	for _, v := range views {
		byTarget[v.Target()] = v
	}

	out := make([]model.SavedView, 0, len(saves))
	for _, s := range saves {
		v, ok := byTarget[s.Target]
		if !ok {
			continue
		}
		out = append(out, model.SavedView{ID: s.ID, Item: v})
	}
	return out, nil
}

// Profile builds the account page of user as seen by requesterID. The
// caller's own view carries contentChoice; anyone else's carries
// isFollowing.
func (a *ViewAssembler) Profile(ctx context.Context, requesterID string, user *model.User) (*model.ProfileView, error) {
	followers, following, err := a.views.FollowCounts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/view: counting follows of %s: %w", user.ID, err)
	}

	created, err := a.contents.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/view: listing content of %s: %w", user.ID, err)
	}

	view := &model.ProfileView{
		PublicProfile:        user.Public(),
		FollowersCount:       followers,
		FollowingCount:       following,
		CreatedArtworks:      []model.Content{},
		CreatedArtblogs:      []model.Content{},
		CreatedAnnouncements: []model.Content{},
	}
	for _, c := range created {
		switch c.Kind {
		case model.KindArtwork:
			view.CreatedArtworks = append(view.CreatedArtworks, c)
		case model.KindArtblog:
			view.CreatedArtblogs = append(view.CreatedArtblogs, c)
		case model.KindAnnouncement:
			view.CreatedAnnouncements = append(view.CreatedAnnouncements, c)
		}
	}

	if requesterID == user.ID {
		view.ContentChoice = user.ContentChoice
		if view.ContentChoice == nil {
			view.ContentChoice = []string{}
		}
		return view, nil
	}

	isFollowing, err := a.views.IsFollowing(ctx, user.ID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("service/view: checking follow of %s: %w", user.ID, err)
	}
	view.IsFollowing = &isFollowing
	return view, nil
}
