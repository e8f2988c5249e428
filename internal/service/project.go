package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/repository"
)

const MaxProjectNameLength = 200

// updatableFields is the allow-list for partial updates. Anything else
// in the request body — userId, files, createdAt, unknown keys — is
// silently ignored, never applied.
var updatableFields = map[string]bool{
	"name":              true,
	"startDate":         true,
	"deadline":          true,
	"deadlineType":      true,
	"type":              true,
	"script":            true,
	"notes":             true,
	"completionPercent": true,
}

// ProjectService handles project CRUD. Every operation is scoped to the
// acting user; the repository collapses "not yours" into NotFound.
type ProjectService struct {
	repo   repository.ProjectRepository
	files  *FileService
	logger *slog.Logger
}

// NewProjectService creates a ProjectService. The FileService is needed
// only for Delete, which removes the project's upload directory.
func NewProjectService(repo repository.ProjectRepository, files *FileService, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		files:  files,
		logger: logger,
	}
}

// CreateProjectInput carries the fields the create form sends. Zero
// values mean "use the default": start date now, deadline type open,
// category personal.
type CreateProjectInput struct {
	Name         string
	StartDate    *time.Time
	Deadline     *time.Time
	DeadlineType model.DeadlineType
	Category     model.Category
}

// List returns the caller's project summaries, newest-created first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]model.ProjectSummary, error) {
	summaries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list projects",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return summaries, nil
}

// Create validates and saves a new project.
//
// DEADLINE RULE (the one real business rule in here):
// an "open" project has no deadline — whatever deadline value arrived is
// discarded. A "fixed" project must have one.
func (s *ProjectService) Create(ctx context.Context, userID string, in CreateProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "project name is required")
	}
	if len(name) > MaxProjectNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
	}

	deadlineType := in.DeadlineType
	if deadlineType == "" {
		deadlineType = model.DeadlineOpen
	}
	if deadlineType != model.DeadlineOpen && deadlineType != model.DeadlineFixed {
		return nil, apperror.ValidationFailed("deadlineType", "deadline type must be open or fixed")
	}

	category := in.Category
	if category == "" {
		category = model.CategoryPersonal
	}
	if !validCategory(category) {
		return nil, apperror.ValidationFailed("type", "project type must be personal, work, or help")
	}

	startDate := time.Now()
	if in.StartDate != nil {
		startDate = *in.StartDate
	}

	var deadline *time.Time
	if deadlineType == model.DeadlineFixed {
		if in.Deadline == nil {
			return nil, apperror.ValidationFailed("deadline", "deadline is required for a fixed deadline type")
		}
		deadline = in.Deadline
	}
	// open → deadline stays nil no matter what the request carried

	project := &model.Project{
		UserID:       userID,
		Name:         name,
		StartDate:    startDate,
		Deadline:     deadline,
		DeadlineType: deadlineType,
		Category:     category,
		Script:       []model.ScriptSection{},
		Files:        []model.ProjectFile{},
	}

	if err := s.repo.Create(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("name", project.Name),
	)

	return project, nil
}

// Get returns the full project document, or NotFound.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*model.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}
	return s.repo.GetByID(ctx, id, userID)
}

// Update applies a partial update. The handler passes the decoded request
// body as raw JSON fields so that presence is preserved: a field that is
// absent is untouched, while "deadline": null is an explicit null.
//
// FIELD PRECEDENCE: if the request sets deadlineType to "open", the
// deadline is forced null even when the same request carries a deadline
// value — the mode wins. And the invariant "open ⟺ no deadline" must
// hold after every update, so switching to "fixed" demands a deadline
// from either the request or the stored project.
func (s *ProjectService) Update(ctx context.Context, userID, id string, fields map[string]json.RawMessage) (*model.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}

	project, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	for field, raw := range fields {
		if !updatableFields[field] {
			continue
		}
		if err := applyField(project, field, raw); err != nil {
			return nil, err
		}
	}

	// Mode over value: re-assert the deadline invariant whatever
	// combination of fields just landed.
	switch project.DeadlineType {
	case model.DeadlineOpen:
		project.Deadline = nil
	case model.DeadlineFixed:
		if project.Deadline == nil {
			return nil, apperror.ValidationFailed("deadline", "deadline is required for a fixed deadline type")
		}
	default:
		return nil, apperror.ValidationFailed("deadlineType", "deadline type must be open or fixed")
	}

	project.CompletionPercent = clampPercent(project.CompletionPercent)

	if err := s.repo.Save(ctx, project); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to save project",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	return project, nil
}

// Delete removes the project document, then best-effort removes its
// upload directory. The two are deliberately not atomic: if the
// directory removal fails the delete still succeeded from the caller's
// point of view, and the startup sweep reclaims the orphaned bytes later.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "project ID is required")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	if err := s.files.RemoveProjectDir(id); err != nil {
		s.logger.Warn("project deleted but upload dir removal failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("project deleted", slog.String("id", id))
	return nil
}

func applyField(project *model.Project, field string, raw json.RawMessage) error {
	switch field {
	case "name":
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return apperror.ValidationFailed("name", "name must be a string")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return apperror.ValidationFailed("name", "project name is required")
		}
		if len(name) > MaxProjectNameLength {
			return apperror.ValidationFailed("name",
				fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
		}
		project.Name = name

	case "startDate":
		t, err := parseDate(raw)
		if err != nil || t == nil {
			return apperror.ValidationFailed("startDate", "invalid start date")
		}
		project.StartDate = *t

	case "deadline":
		t, err := parseDate(raw)
		if err != nil {
			return apperror.ValidationFailed("deadline", "invalid deadline date")
		}
		project.Deadline = t // may be nil: explicit "deadline": null

	case "deadlineType":
		var dt model.DeadlineType
		if err := json.Unmarshal(raw, &dt); err != nil {
			return apperror.ValidationFailed("deadlineType", "deadline type must be a string")
		}
		project.DeadlineType = dt

	case "type":
		var c model.Category
		if err := json.Unmarshal(raw, &c); err != nil {
			return apperror.ValidationFailed("type", "project type must be a string")
		}
		if !validCategory(c) {
			return apperror.ValidationFailed("type", "project type must be personal, work, or help")
		}
		project.Category = c

	case "script":
		var script []model.ScriptSection
		if err := json.Unmarshal(raw, &script); err != nil {
			return apperror.ValidationFailed("script", "script must be a list of sections")
		}
		if script == nil {
			script = []model.ScriptSection{}
		}
		project.Script = script

	case "notes":
		var notes string
		if err := json.Unmarshal(raw, &notes); err != nil {
			return apperror.ValidationFailed("notes", "notes must be a string")
		}
		project.Notes = notes

	case "completionPercent":
		var pct int
		if err := json.Unmarshal(raw, &pct); err != nil {
			return apperror.ValidationFailed("completionPercent", "completion percent must be a number")
		}
		project.CompletionPercent = pct
	}

	return nil
}

// parseDate decodes a JSON date that may be null, RFC 3339, or the bare
// "2006-01-02" the <input type="date"> control produces.
func parseDate(raw json.RawMessage) (*time.Time, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == nil || *s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func clampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func validCategory(c model.Category) bool {
	switch c {
	case model.CategoryPersonal, model.CategoryWork, model.CategoryHelp:
		return true
	}
	return false
}
