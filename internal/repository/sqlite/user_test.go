package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/model"
)

// newTestDB creates a fresh in-memory database. Fast, isolated, and
// destroyed when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$fakehashfortesting",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "seif", "seif@example.com")

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "seif", "seif@example.com")

	dup := &model.User{Username: "other", Email: "seif@example.com"}
	err := db.Users().Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() should reject a duplicate email")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "seif", "seif@example.com")

	found, err := db.Users().GetByEmail(context.Background(), "seif@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash == "" {
		t.Error("GetByEmail() did not load the password hash")
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByGoogleID(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username: "googler",
		Email:    "googler@example.com",
		GoogleID: "google-sub-42",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := db.Users().GetByGoogleID(context.Background(), "google-sub-42")
	if err != nil {
		t.Fatalf("GetByGoogleID() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ID = %q, want %q", found.ID, user.ID)
	}
}

// Password-only accounts have an empty google_id. An empty lookup must
// not match them.
func TestUserGetByGoogleID_EmptyNeverMatches(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "seif", "seif@example.com")

	_, err := db.Users().GetByGoogleID(context.Background(), "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate_LinksGoogleIdentity(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "seif", "seif@example.com")

	user.GoogleID = "google-sub-7"
	user.AvatarURL = "https://example.com/pic.png"
	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Users().GetByGoogleID(context.Background(), "google-sub-7")
	if err != nil {
		t.Fatalf("GetByGoogleID() after link error = %v", err)
	}
	if found.AvatarURL != "https://example.com/pic.png" {
		t.Errorf("AvatarURL = %q, want linked avatar", found.AvatarURL)
	}
	if !found.HasPassword() {
		t.Error("linking Google must not drop the password hash")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "does-not-exist", Username: "x", Email: "x@y.z"}
	err := db.Users().Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
