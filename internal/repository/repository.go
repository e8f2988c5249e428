// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/seifsameh007/sciptivity/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// ProjectRepository stores whole Project documents. There is no partial
// write: Save replaces the full document (script sections and file
// metadata included) in one statement, which is the only atomicity the
// system relies on.
//
// Every read/write except GetAny and ListIDs is scoped by owner —
// a wrong userID behaves exactly like a missing id (NotFound), so
// callers can't distinguish "not yours" from "doesn't exist".
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id, userID string) (*model.Project, error)
	ListByUser(ctx context.Context, userID string) ([]model.ProjectSummary, error)
	Save(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id, userID string) error

	// ListIDs and GetAny are owner-unscoped. They exist for the orphan
	// sweep, which reconciles the upload directory against ALL projects;
	// nothing request-facing may use them.
	ListIDs(ctx context.Context) ([]string, error)
	GetAny(ctx context.Context, id string) (*model.Project, error)
}
