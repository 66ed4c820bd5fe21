package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/openart/internal/model"
)

func TestViewCountEdges(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	f1 := createTestUser(t, db, "f1")
	f2 := createTestUser(t, db, "f2")
	a := createTestContent(t, db, owner, model.KindArtwork, "painting")
	b := createTestContent(t, db, owner, model.KindArtwork, "painting")

	_, _ = db.Likes().Add(ctx, &model.Like{OwnerID: f1.ID, Target: a.Target()})
	_, _ = db.Likes().Add(ctx, &model.Like{OwnerID: f2.ID, Target: a.Target()})

	counts, err := db.Views().CountEdges(ctx, model.EdgeLike, []string{a.ID, b.ID, a.ID})
	if err != nil {
		t.Fatalf("CountEdges() error = %v", err)
	}
	if counts[a.ID] != 2 {
		t.Errorf("likes of a = %d, want 2", counts[a.ID])
	}
	if _, ok := counts[b.ID]; ok {
		t.Errorf("b has no likes and should be absent, got %d", counts[b.ID])
	}
}

func TestViewCountEdges_EmptyAndUnknown(t *testing.T) {
	db := newTestDB(t)

	counts, err := db.Views().CountEdges(context.Background(), model.EdgeLike, nil)
	if err != nil || len(counts) != 0 {
		t.Errorf("CountEdges(nil) = %v, %v", counts, err)
	}

	if _, err := db.Views().CountEdges(context.Background(), "users; DROP TABLE users", []string{"x"}); err == nil {
		t.Error("CountEdges() accepted an unknown edge kind")
	}
}

func TestViewEdgesOwnedBy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	fan := createTestUser(t, db, "fan")
	a := createTestContent(t, db, owner, model.KindArtwork, "painting")
	b := createTestContent(t, db, owner, model.KindArtwork, "painting")
	_, _ = db.Saves().Add(ctx, &model.Save{OwnerID: fan.ID, Target: b.Target()})

	owned, err := db.Views().EdgesOwnedBy(ctx, model.EdgeSave, fan.ID, []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("EdgesOwnedBy() error = %v", err)
	}
	if owned[a.ID] || !owned[b.ID] {
		t.Errorf("EdgesOwnedBy() = %v, want only b", owned)
	}

	// A requester who never interacted gets an empty set, not an error.
	none, err := db.Views().EdgesOwnedBy(ctx, model.EdgeSave, owner.ID, []string{a.ID, b.ID})
	if err != nil || len(none) != 0 {
		t.Errorf("EdgesOwnedBy(owner) = %v, %v", none, err)
	}
}

func TestViewPublicProfiles(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "ayesha")

	profiles, err := db.Views().PublicProfiles(context.Background(), []string{u.ID, "ghost"})
	if err != nil {
		t.Fatalf("PublicProfiles() error = %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("PublicProfiles() = %d entries, want 1", len(profiles))
	}
	if p := profiles[u.ID]; p.Username != "ayesha" || p.Avatar != u.Avatar {
		t.Errorf("profile = %+v", p)
	}
}

func TestViewFollowCountsAndIsFollowing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a")
	b := createTestUser(t, db, "b")
	c := createTestUser(t, db, "c")
	_, _ = db.Follows().Add(ctx, &model.Follow{ArtistID: b.ID, FollowerID: a.ID})
	_, _ = db.Follows().Add(ctx, &model.Follow{ArtistID: b.ID, FollowerID: c.ID})
	_, _ = db.Follows().Add(ctx, &model.Follow{ArtistID: a.ID, FollowerID: b.ID})

	followers, following, err := db.Views().FollowCounts(ctx, b.ID)
	if err != nil {
		t.Fatalf("FollowCounts() error = %v", err)
	}
	if followers != 2 || following != 1 {
		t.Errorf("FollowCounts(b) = %d, %d; want 2, 1", followers, following)
	}

	yes, _ := db.Views().IsFollowing(ctx, b.ID, a.ID)
	no, _ := db.Views().IsFollowing(ctx, c.ID, a.ID)
	if !yes || no {
		t.Errorf("IsFollowing = %v/%v, want true/false", yes, no)
	}
}

// More ids than SQLite accepts as host parameters in one statement.
func manyIDs(real ...string) []string {
	ids := make([]string, 0, 40000+len(real))
	for i := 0; i < 40000; i++ {
		ids = append(ids, fmt.Sprintf("missing-%05d", i))
	}
	return append(ids, real...)
}

func TestViewQueries_BeyondParameterLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	fan := createTestUser(t, db, "fan")
	a := createTestContent(t, db, owner, model.KindArtwork, "painting")
	_, _ = db.Likes().Add(ctx, &model.Like{OwnerID: fan.ID, Target: a.Target()})

	counts, err := db.Views().CountEdges(ctx, model.EdgeLike, manyIDs(a.ID))
	if err != nil {
		t.Fatalf("CountEdges() error = %v", err)
	}
	if counts[a.ID] != 1 {
		t.Errorf("likes of a = %d, want 1", counts[a.ID])
	}

	liked, err := db.Views().EdgesOwnedBy(ctx, model.EdgeLike, fan.ID, manyIDs(a.ID))
	if err != nil || !liked[a.ID] {
		t.Errorf("EdgesOwnedBy() = %v, %v; want a liked", liked, err)
	}

	profiles, err := db.Views().PublicProfiles(ctx, manyIDs(owner.ID))
	if err != nil || len(profiles) != 1 {
		t.Errorf("PublicProfiles() = %d profiles, %v; want 1", len(profiles), err)
	}

	items, err := db.Contents().ListByIDs(ctx, model.KindArtwork, manyIDs(a.ID))
	if err != nil || len(items) != 1 {
		t.Errorf("ListByIDs() = %d items, %v; want 1", len(items), err)
	}
}

func TestContentListByIDs_MergesBatchesNewestFirst(t *testing.T) {
	old := maxBatch
	maxBatch = 1
	t.Cleanup(func() { maxBatch = old })

	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	a := createTestContent(t, db, owner, model.KindArtwork, "painting")
	b := createTestContent(t, db, owner, model.KindArtwork, "digital")
	c := createTestContent(t, db, owner, model.KindArtwork, "painting")

	got, err := db.Contents().ListByIDs(context.Background(), model.KindArtwork, []string{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != c.ID || got[1].ID != b.ID || got[2].ID != a.ID {
		t.Errorf("ListByIDs() order = %v, want c, b, a", contentIDs(got))
	}

	feed, err := db.Contents().ListByCategories(context.Background(), model.KindArtwork, []string{"painting", "digital"})
	if err != nil {
		t.Fatalf("ListByCategories() error = %v", err)
	}
	if len(feed) != 3 || feed[0].ID != c.ID || feed[2].ID != a.ID {
		t.Errorf("ListByCategories() order = %v, want c, b, a", contentIDs(feed))
	}
}

func contentIDs(items []model.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}
