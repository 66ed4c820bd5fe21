package model

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ContentKind tags a content entity. It doubles as the kind half of an edge
// Target.
type ContentKind string

const (
	KindArtwork      ContentKind = "artwork"
	KindArtblog      ContentKind = "artblog"
	KindAnnouncement ContentKind = "announcement"
)

// ContentKinds lists every kind in display order.
var ContentKinds = []ContentKind{KindArtwork, KindArtblog, KindAnnouncement}

func (k ContentKind) Valid() bool {
	switch k {
	case KindArtwork, KindArtblog, KindAnnouncement:
		return true
	}
	return false
}

// Label is the capitalised name used in messages, e.g. "Artwork".
func (k ContentKind) Label() string {
	switch k {
	case KindArtwork:
		return "Artwork"
	case KindArtblog:
		return "Artblog"
	case KindAnnouncement:
		return "Announcement"
	}
	return string(k)
}

// AssetField is the multipart field and JSON key of the kind's asset, or ""
// when the kind has none.
func (k ContentKind) AssetField() string {
	switch k {
	case KindArtwork:
		return "contentFile"
	case KindAnnouncement:
		return "image"
	}
	return ""
}

// AssetRequired reports whether creating content of this kind needs an asset.
func (k ContentKind) AssetRequired() bool { return k == KindArtwork }

// TextField is the JSON key of the kind's long text.
func (k ContentKind) TextField() string {
	if k == KindArtblog {
		return "content"
	}
	return "description"
}

// Content is an Artwork, Artblog or Announcement. Description carries the
// artwork/announcement text and Body the artblog text; AssetURL is the
// artwork contentFile or the announcement image.
type Content struct {
	ID          string
	Kind        ContentKind
	Title       string
	Description string
	Body        string
	Category    string
	AssetURL    string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Text returns the kind's long text.
func (c *Content) Text() string {
	if c.Kind == KindArtblog {
		return c.Body
	}
	return c.Description
}

// Target addresses c as an edge target.
func (c *Content) Target() Target {
	return Target{Kind: c.Kind, ID: c.ID}
}

// fields renders the kind-specific JSON shape. Owner is the owner id; views
// replace it with the profile.
func (c *Content) fields() map[string]any {
	m := map[string]any{
		"_id":       c.ID,
		"title":     c.Title,
		"category":  c.Category,
		"owner":     c.OwnerID,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
	m[c.Kind.TextField()] = c.Text()
	if f := c.Kind.AssetField(); f != "" {
		if c.AssetURL == "" {
			m[f] = nil
		} else {
			m[f] = c.AssetURL
		}
	}
	return m
}

func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.fields())
}

// Target is the tagged reference from a Comment, Like or Save to exactly one
// content entity.
type Target struct {
	Kind ContentKind
	ID   string
}

// NewTarget builds a Target, rejecting unknown kinds and empty ids.
func NewTarget(kind ContentKind, id string) (Target, error) {
	if !kind.Valid() {
		return Target{}, fmt.Errorf("model: unknown content kind %q", kind)
	}
	if id == "" {
		return Target{}, fmt.Errorf("model: empty %s id", kind)
	}
	return Target{Kind: kind, ID: id}, nil
}
