package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/service"
)

// maxUploadBytes bounds one whole multipart request: up to 10 files of
// 50 MiB each, plus slack for the multipart framing.
const maxUploadBytes = service.MaxFilesPerUpload*service.MaxFileSize + (1 << 20)

// FileHandler manages project attachments: upload, download, delete.
type FileHandler struct {
	service *service.FileService
	logger  *slog.Logger
}

func NewFileHandler(svc *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{service: svc, logger: logger}
}

// filesResponse is the body for upload and delete: a message plus the
// project's full updated file list, so the client can re-render without
// a second request.
type filesResponse struct {
	Message string              `json:"message"`
	Files   []model.ProjectFile `json:"files"`
}

// HandleUpload accepts a multipart upload for a project.
//
// HTTP: POST /api/projects/{id}/files
// REQUEST: multipart/form-data with one or more parts in the "files" field
//
// MaxBytesReader caps the request body BEFORE ParseMultipartForm buffers
// anything, so an oversized request fails fast instead of filling /tmp.
// The per-file size check lives in the service.
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Warn("invalid multipart upload", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid or too large multipart request"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := h.service.Upload(r.Context(), uid, chi.URLParam(r, "id"), r.MultipartForm.File["files"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, filesResponse{
		Message: "Files uploaded successfully",
		Files:   files,
	})
}

// HandleDownload streams one attachment back as a download.
//
// HTTP: GET /api/projects/{id}/files/{fileID}
//
// http.ServeFile handles Range requests, Content-Length, and
// Last-Modified for free; we only add the attachment disposition with
// the original (quoted) filename.
func (h *FileHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	record, path, err := h.service.Resolve(r.Context(), uid, chi.URLParam(r, "id"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalName))
	http.ServeFile(w, r, path)
}

// HandleDelete removes one attachment.
//
// HTTP: DELETE /api/projects/{id}/files/{fileID}
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	files, err := h.service.Delete(r.Context(), uid, chi.URLParam(r, "id"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, filesResponse{
		Message: "File deleted successfully",
		Files:   files,
	})
}
