package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/openart/internal/apperror"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "ayesha")

	if u.ID == "" {
		t.Error("Create() did not set ID")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserCreate_DuplicateUsernameOrEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ayesha")

	dup := *createTestUserValue("ayesha")
	dup.Email = "other@example.com"
	err := db.Users().Create(context.Background(), &dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate username: error = %v, want ErrConflict", err)
	}

	dup = *createTestUserValue("someoneelse")
	dup.Email = "ayesha@example.com"
	err = db.Users().Create(context.Background(), &dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate email: error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestUserGetByID_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ayesha")

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "ayesha" || got.Password != created.Password {
		t.Errorf("GetByID() = %+v", got)
	}
	if len(got.ContentChoice) != 1 || got.ContentChoice[0] != "painting" {
		t.Errorf("ContentChoice = %v, want [painting]", got.ContentChoice)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername_NotFoundMessage(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if err.Error() != "User does not exist" {
		t.Errorf("message = %q", err.Error())
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "ayesha")

	u.Bio = "new bio"
	u.ContentChoice = []string{"sculpture", "digital"}
	if err := db.Users().Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := db.Users().GetByID(context.Background(), u.ID)
	if got.Bio != "new bio" || len(got.ContentChoice) != 2 {
		t.Errorf("after Update() got %+v", got)
	}
}

func TestUserUpdate_EmailTaken(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "first")
	second := createTestUser(t, db, "second")

	second.Email = "first@example.com"
	if err := db.Users().Update(context.Background(), second); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
}

func TestUserDelete_CascadesOwnedRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	art := createTestContent(t, db, owner, "artwork", "painting")

	if err := db.Users().Delete(ctx, owner.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Contents().GetByID(ctx, art.Kind, art.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("content survived owner deletion: %v", err)
	}
	if err := db.Users().Delete(ctx, owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
