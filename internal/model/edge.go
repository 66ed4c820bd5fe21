package model

import "time"

// Comment is a text edge from a user to one content entity.
type Comment struct {
	ID        string
	Content   string
	OwnerID   string
	Target    Target
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Like is unique per (owner, target).
type Like struct {
	ID        string
	OwnerID   string
	Target    Target
	CreatedAt time.Time
}

// Follow points from FollowerID (the actor) to ArtistID (the followed). It is
// unique per pair and never self-referential.
type Follow struct {
	ID         string
	ArtistID   string
	FollowerID string
	CreatedAt  time.Time
}

// Save is a bookmark, unique per (owner, target).
type Save struct {
	ID        string
	OwnerID   string
	Target    Target
	CreatedAt time.Time
}

// EdgeKind names an edge collection that can be counted or tested for
// membership against content targets.
type EdgeKind string

const (
	EdgeLike    EdgeKind = "like"
	EdgeComment EdgeKind = "comment"
	EdgeSave    EdgeKind = "save"
)
