package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Using a fake (not a mock framework) keeps tests dependency-free and easy
// to read — you can see exactly what the fake does.
type fakeUserRepo struct {
	users map[string]*model.User // keyed by internal ID
	// set to a non-nil error to simulate a database failure
	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.ValidationFailed("email", "user with this email already exists")
		}
	}
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	if googleID == "" {
		return nil, apperror.NotFound("user", googleID)
	}
	for _, u := range f.users {
		if u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", googleID)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

// fakeProjectRepo is an in-memory implementation of
// repository.ProjectRepository with the same ownership semantics as the
// sqlite implementation: a wrong userID looks exactly like a missing id.
type fakeProjectRepo struct {
	projects map[string]*model.Project
	order    []string // insertion order, for ListByUser
	saveErr  error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*model.Project)}
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	copied := *project
	f.projects[project.ID] = &copied
	f.order = append(f.order, project.ID)
	return nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id, userID string) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("project", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.ProjectSummary, error) {
	summaries := []model.ProjectSummary{}
	// newest-first, matching the sqlite ORDER BY
	for i := len(f.order) - 1; i >= 0; i-- {
		p := f.projects[f.order[i]]
		if p.UserID != userID {
			continue
		}
		summaries = append(summaries, model.ProjectSummary{
			ID:                p.ID,
			Name:              p.Name,
			StartDate:         p.StartDate,
			Deadline:          p.Deadline,
			DeadlineType:      p.DeadlineType,
			Category:          p.Category,
			CompletionPercent: p.CompletionPercent,
			CreatedAt:         p.CreatedAt,
		})
	}
	return summaries, nil
}

func (f *fakeProjectRepo) Save(ctx context.Context, project *model.Project) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	p, ok := f.projects[project.ID]
	if !ok || p.UserID != project.UserID {
		return apperror.NotFound("project", project.ID)
	}
	project.UpdatedAt = time.Now()
	copied := *project
	f.projects[project.ID] = &copied
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id, userID string) error {
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("project", id)
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.projects))
	for id := range f.projects {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeProjectRepo) GetAny(ctx context.Context, id string) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	copied := *p
	return &copied, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestFileService(t *testing.T, repo *fakeProjectRepo) *FileService {
	t.Helper()
	fs, err := NewFileService(repo, t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileService: %v", err)
	}
	return fs
}
