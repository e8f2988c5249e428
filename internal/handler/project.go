// Package handler contains the HTTP layer: request parsing, calling the
// service layer, and writing responses. Handlers hold no business logic —
// they are the glue between HTTP and the services.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"time"

	"github.com/seifsameh007/sciptivity/internal/auth"
	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/service"
)

// ProjectHandler manages project CRUD. Every route is behind RequireAuth,
// so an identity is always present in the request context; the user ID
// from it scopes every service call.
type ProjectHandler struct {
	service *service.ProjectService
	logger  *slog.Logger
}

func NewProjectHandler(svc *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{service: svc, logger: logger}
}

// userID pulls the authenticated user out of the context. A missing
// identity means the route was wired without RequireAuth — treat it as
// unauthorized rather than panicking.
func userID(r *http.Request) (string, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return "", false
	}
	return identity.UserID, true
}

// HandleList returns the caller's projects, newest first.
//
// HTTP: GET /api/projects
// RESPONSE: {"projects": [...]} — summaries only, no script/notes/files
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	projects, err := h.service.List(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.ProjectSummary{"projects": projects})
}

// HandleCreate creates a project.
//
// HTTP: POST /api/projects
// REQUEST BODY: {"name": "...", "startDate": "...", "deadline": "...",
//
//	"deadlineType": "open|fixed", "type": "personal|work|help"}
//
// Dates arrive as strings — either RFC 3339 or the bare "2006-01-02"
// that <input type="date"> produces — so they're parsed here, not by
// encoding/json.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req struct {
		Name         string             `json:"name"`
		StartDate    string             `json:"startDate"`
		Deadline     string             `json:"deadline"`
		DeadlineType model.DeadlineType `json:"deadlineType"`
		Category     model.Category     `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid project JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	in := service.CreateProjectInput{
		Name:         req.Name,
		DeadlineType: req.DeadlineType,
		Category:     req.Category,
	}

	var err error
	if in.StartDate, err = parseDateString(req.StartDate); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid start date"})
		return
	}
	if in.Deadline, err = parseDateString(req.Deadline); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid deadline date"})
		return
	}

	project, err := h.service.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]*model.Project{"project": project})
}

// HandleGet returns one full project document.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	project, err := h.service.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.Project{"project": project})
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/projects/{id}
//
// The body is decoded into raw JSON fields rather than a struct so the
// service can tell "field absent" from "field explicitly null" — the
// autosave client sends only what changed, and "deadline": null is a
// meaningful value.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.logger.Warn("invalid update JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	project, err := h.service.Update(r.Context(), uid, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.Project{"project": project})
}

// HandleDelete removes a project and its uploaded files.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	if err := h.service.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

// parseDateString parses an optional date field from a create request.
// Empty means "not sent".
func parseDateString(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
