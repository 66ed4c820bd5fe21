package model

import (
	"time"

	"github.com/goccy/go-json"
)

// ContentView is a content entity annotated with its owner projection, edge
// counts and requester-scoped flags.
type ContentView struct {
	Content
	Owner         PublicProfile
	LikesCount    int
	CommentsCount int
	IsLiked       bool
	IsSaved       bool
}

func (v ContentView) MarshalJSON() ([]byte, error) {
	m := v.Content.fields()
	m["owner"] = v.Owner
	m["likesCount"] = v.LikesCount
	m["commentsCount"] = v.CommentsCount
	m["isLiked"] = v.IsLiked
	m["isSaved"] = v.IsSaved
	return json.Marshal(m)
}

// CommentView carries DeletionFlag, true when the requester owns the comment.
type CommentView struct {
	ID           string        `json:"_id"`
	Content      string        `json:"content"`
	Owner        PublicProfile `json:"owner"`
	DeletionFlag bool          `json:"deletionFlag"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type LikeView struct {
	ID      string        `json:"_id"`
	LikedBy PublicProfile `json:"likedBy"`
}

type FollowerView struct {
	ID       string        `json:"_id"`
	Follower PublicProfile `json:"follower"`
}

type FollowingView struct {
	ID     string        `json:"_id"`
	Artist PublicProfile `json:"artist"`
}

// SavedView is keyed by the saved item's kind: {"_id": ..., "artwork": {...}}.
type SavedView struct {
	ID   string
	Item ContentView
}

func (v SavedView) MarshalJSON() ([]byte, error) {
	m := map[string]any{"_id": v.ID}
	m[string(v.Item.Kind)] = v.Item
	return json.Marshal(m)
}

// ProfileView is the denormalized account page. ContentChoice is only set on
// the caller's own view and IsFollowing only on someone else's.
type ProfileView struct {
	PublicProfile
	FollowersCount       int       `json:"followersCount"`
	FollowingCount       int       `json:"followingCount"`
	CreatedArtworks      []Content `json:"createdArtworks"`
	CreatedArtblogs      []Content `json:"createdArtblogs"`
	CreatedAnnouncements []Content `json:"createdAnnouncements"`
	ContentChoice        []string  `json:"contentChoice,omitempty"`
	IsFollowing          *bool     `json:"isFollowing,omitempty"`
}
