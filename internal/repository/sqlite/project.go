package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/repository"
)

// ProjectRepo implements repository.ProjectRepository on the shared pool.
type ProjectRepo struct {
	conn *sql.DB
}

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

const projectColumns = `id, user_id, name, start_date, deadline, deadline_type, category,
	script, notes, files, completion_percent, created_at, updated_at`

// Create inserts a new project document. ID and timestamps are generated
// here and written back through the pointer.
func (r *ProjectRepo) Create(ctx context.Context, project *model.Project) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.CreatedAt = now
	project.UpdatedAt = now

	script, files, err := marshalEmbedded(project)
	if err != nil {
		return err
	}

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.UserID,
		project.Name,
		project.StartDate,
		nullableTime(project.Deadline),
		string(project.DeadlineType),
		string(project.Category),
		script,
		project.Notes,
		files,
		project.CompletionPercent,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	return nil
}

// GetByID retrieves a project only if it belongs to userID. A project
// owned by someone else scans as no rows, so the caller sees the same
// NotFound a nonexistent id produces.
func (r *ProjectRepo) GetByID(ctx context.Context, id, userID string) (*model.Project, error) {
	return r.getProject(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`,
		id, id, userID)
}

// GetAny retrieves a project regardless of owner. Maintenance only —
// the orphan sweep walks all projects, it has no acting user.
func (r *ProjectRepo) GetAny(ctx context.Context, id string) (*model.Project, error) {
	return r.getProject(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		id, id)
}

func (r *ProjectRepo) getProject(ctx context.Context, query, id string, args ...any) (*model.Project, error) {
	var (
		p            model.Project
		deadline     sql.NullTime
		scriptJSON   []byte
		filesJSON    []byte
		deadlineType string
		category     string
	)

	err := r.conn.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.StartDate,
		&deadline,
		&deadlineType,
		&category,
		&scriptJSON,
		&p.Notes,
		&filesJSON,
		&p.CompletionPercent,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}

	if deadline.Valid {
		t := deadline.Time
		p.Deadline = &t
	}
	p.DeadlineType = model.DeadlineType(deadlineType)
	p.Category = model.Category(category)

	if err := json.Unmarshal(scriptJSON, &p.Script); err != nil {
		return nil, fmt.Errorf("sqlite: decoding script for project %s: %w", id, err)
	}
	if err := json.Unmarshal(filesJSON, &p.Files); err != nil {
		return nil, fmt.Errorf("sqlite: decoding files for project %s: %w", id, err)
	}

	return &p, nil
}

// ListByUser returns dashboard summaries of the caller's projects,
// newest-created first. The script/notes/files columns are not read —
// the list view doesn't need them and they can be large.
func (r *ProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.ProjectSummary, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, name, start_date, deadline, deadline_type, category,
		        completion_percent, created_at
		 FROM projects
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	summaries := []model.ProjectSummary{}
	for rows.Next() {
		var (
			s            model.ProjectSummary
			deadline     sql.NullTime
			deadlineType string
			category     string
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.StartDate, &deadline, &deadlineType,
			&category, &s.CompletionPercent, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		if deadline.Valid {
			t := deadline.Time
			s.Deadline = &t
		}
		s.DeadlineType = model.DeadlineType(deadlineType)
		s.Category = model.Category(category)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return summaries, nil
}

// Save replaces the whole project document in one UPDATE — the
// document-store "replace/save" the rest of the system relies on for
// atomicity. updated_at is refreshed on every save.
//
// The WHERE clause re-checks ownership so a stale in-memory project
// can't be written over someone else's row.
func (r *ProjectRepo) Save(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now()

	script, files, err := marshalEmbedded(project)
	if err != nil {
		return err
	}

	result, err := r.conn.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, start_date = ?, deadline = ?, deadline_type = ?,
		     category = ?, script = ?, notes = ?, files = ?,
		     completion_percent = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		project.Name,
		project.StartDate,
		nullableTime(project.Deadline),
		string(project.DeadlineType),
		string(project.Category),
		script,
		project.Notes,
		files,
		project.CompletionPercent,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving project %s: %w", project.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// Delete removes the project document. Same ownership scoping as reads.
func (r *ProjectRepo) Delete(ctx context.Context, id, userID string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", id)
	}

	return nil
}

// ListIDs returns every project id in the store. Maintenance only.
func (r *ProjectRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing project ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project ids: %w", err)
	}

	return ids, nil
}

// marshalEmbedded encodes the script and files lists for storage.
// nil slices round-trip as empty arrays, never JSON null.
func marshalEmbedded(project *model.Project) (script, files []byte, err error) {
	s := project.Script
	if s == nil {
		s = []model.ScriptSection{}
	}
	f := project.Files
	if f == nil {
		f = []model.ProjectFile{}
	}

	script, err = json.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: encoding script: %w", err)
	}
	files, err = json.Marshal(f)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: encoding files: %w", err)
	}
	return script, files, nil
}

// nullableTime converts *time.Time to the driver-friendly any — nil
// stays NULL instead of the zero time.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
