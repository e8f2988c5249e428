package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/repository"
)

const (
	// MaxFilesPerUpload caps one multipart request.
	MaxFilesPerUpload = 10

	// MaxFileSize is the per-file byte limit (50 MiB).
	MaxFileSize = 50 << 20

	// sweepGrace protects freshly written files from the orphan sweep.
	// An upload writes bytes to disk BEFORE the metadata save lands, so
	// a file can legitimately sit unreferenced for the length of one
	// request; anything younger than this window is left alone.
	sweepGrace = time.Hour
)

// FileService owns the upload directory tree: one subdirectory per
// project, addressed by project id. The bytes live here; the project
// document only carries metadata records.
//
// WHY NOT STORE BYTES IN THE DOCUMENT STORE?
// Attachments can be 50 MiB each. Keeping them out of the document keeps
// every project read/save small, and lets downloads stream straight from
// disk instead of passing through the store.
type FileService struct {
	repo   repository.ProjectRepository
	root   string
	logger *slog.Logger
}

// NewFileService creates a FileService rooted at root (created if
// absent).
func NewFileService(repo repository.ProjectRepository, root string, logger *slog.Logger) (*FileService, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("service/files: creating upload root %s: %w", root, err)
	}
	return &FileService{
		repo:   repo,
		root:   root,
		logger: logger,
	}, nil
}

// Upload accepts the files of one multipart request for a project the
// caller owns, writes them to the project's directory, appends metadata
// records, saves the document, and returns the full updated file list.
//
// The stored name is "<unix-ms>-<random 9 digits>-<sanitized original>":
// collision-resistant (timestamp + randomness) while keeping the
// original name visible for anyone poking around the directory.
//
// NOTE ON ATOMICITY: bytes hit the disk before the metadata save. If the
// save fails (or the process dies between the two) the bytes are
// orphaned, not the metadata — a phantom file is recoverable garbage,
// a metadata record pointing at nothing would be a broken download.
// SweepOrphans reclaims the garbage.
func (s *FileService) Upload(ctx context.Context, userID, projectID string, files []*multipart.FileHeader) ([]model.ProjectFile, error) {
	project, err := s.repo.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, apperror.ValidationFailed("files", "no files uploaded")
	}
	if len(files) > MaxFilesPerUpload {
		return nil, apperror.ValidationFailed("files",
			fmt.Sprintf("at most %d files per upload", MaxFilesPerUpload))
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return nil, apperror.ValidationFailed("files",
				fmt.Sprintf("%s exceeds the %d MiB file size limit", fh.Filename, MaxFileSize>>20))
		}
	}

	dir := s.projectDir(projectID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("service/files: creating project dir: %w", err)
	}

	for _, fh := range files {
		record, err := s.writeOne(dir, fh)
		if err != nil {
			return nil, err
		}
		project.Files = append(project.Files, *record)
	}

	if err := s.repo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("service/files: saving file metadata: %w", err)
	}

	s.logger.Info("files uploaded",
		slog.String("projectID", projectID),
		slog.Int("count", len(files)),
	)

	return project.Files, nil
}

func (s *FileService) writeOne(dir string, fh *multipart.FileHeader) (*model.ProjectFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("service/files: opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	original := sanitizeFilename(fh.Filename)
	stored := fmt.Sprintf("%d-%09d-%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), original)
	path := filepath.Join(dir, stored)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("service/files: creating %s: %w", path, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path) // don't leave half a file behind
		return nil, fmt.Errorf("service/files: writing %s: %w", path, err)
	}

	return &model.ProjectFile{
		ID:           xid.New().String(),
		OriginalName: original,
		FileName:     stored,
		Path:         path,
		Size:         size,
		UploadedAt:   time.Now(),
	}, nil
}

// Resolve looks up a file within the caller's project and confirms the
// bytes exist on disk. Returns the metadata record and the disk path the
// handler should stream from. Missing project, missing record, and
// missing bytes all come back as NotFound.
func (s *FileService) Resolve(ctx context.Context, userID, projectID, fileID string) (*model.ProjectFile, string, error) {
	project, err := s.repo.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, "", err
	}

	record := findFile(project, fileID)
	if record == nil {
		return nil, "", apperror.NotFound("file", fileID)
	}

	path := filepath.Join(s.projectDir(projectID), record.FileName)
	if _, err := os.Stat(path); err != nil {
		return nil, "", apperror.NotFound("file", fileID)
	}

	return record, path, nil
}

// Delete removes one file: bytes first (a prior disappearance is fine),
// then the metadata record, then saves the document. Returns the updated
// file list.
func (s *FileService) Delete(ctx context.Context, userID, projectID, fileID string) ([]model.ProjectFile, error) {
	project, err := s.repo.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	record := findFile(project, fileID)
	if record == nil {
		return nil, apperror.NotFound("file", fileID)
	}

	path := filepath.Join(s.projectDir(projectID), record.FileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("service/files: removing %s: %w", path, err)
	}

	kept := project.Files[:0]
	for _, f := range project.Files {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	project.Files = kept

	if err := s.repo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("service/files: saving file metadata: %w", err)
	}

	s.logger.Info("file deleted",
		slog.String("projectID", projectID),
		slog.String("fileID", fileID),
	)

	return project.Files, nil
}

// RemoveProjectDir deletes a project's entire upload directory. Called
// by ProjectService.Delete; absence is not an error.
func (s *FileService) RemoveProjectDir(projectID string) error {
	return os.RemoveAll(s.projectDir(projectID))
}

// SweepOrphans reconciles the upload tree against the store:
//
//   - a directory whose project id no longer exists is removed wholesale
//     (a crash between document delete and directory delete leaves these)
//   - inside a live project's directory, a file no metadata record
//     references is removed IF it is older than the grace window
//     (a crash between disk write and metadata save leaves these; the
//     grace window keeps the sweep from eating an in-flight upload)
//
// Runs in the background at startup. Purely an optimization of disk
// usage — correctness never depends on it.
func (s *FileService) SweepOrphans(ctx context.Context) error {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("service/files: listing project ids: %w", err)
	}
	live := make(map[string]bool, len(ids))
	for _, id := range ids {
		live[id] = true
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("service/files: reading upload root: %w", err)
	}

	var removedDirs, removedFiles int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectID := entry.Name()

		if !live[projectID] {
			if err := os.RemoveAll(filepath.Join(s.root, projectID)); err != nil {
				s.logger.Warn("sweep: failed to remove orphan dir",
					slog.String("dir", projectID),
					slog.String("error", err.Error()),
				)
				continue
			}
			removedDirs++
			continue
		}

		n, err := s.sweepProjectDir(ctx, projectID)
		if err != nil {
			s.logger.Warn("sweep: failed to sweep project dir",
				slog.String("projectID", projectID),
				slog.String("error", err.Error()),
			)
			continue
		}
		removedFiles += n
	}

	if removedDirs > 0 || removedFiles > 0 {
		s.logger.Info("orphan sweep complete",
			slog.Int("removedDirs", removedDirs),
			slog.Int("removedFiles", removedFiles),
		)
	}

	return nil
}

func (s *FileService) sweepProjectDir(ctx context.Context, projectID string) (int, error) {
	project, err := s.repo.GetAny(ctx, projectID)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool, len(project.Files))
	for _, f := range project.Files {
		referenced[f.FileName] = true
	}

	dir := s.projectDir(projectID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < sweepGrace {
			continue // might be an upload whose save hasn't landed yet
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}

func (s *FileService) projectDir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

func findFile(project *model.Project, fileID string) *model.ProjectFile {
	for i := range project.Files {
		if project.Files[i].ID == fileID {
			return &project.Files[i]
		}
	}
	return nil
}

// sanitizeFilename makes an upload's client-supplied name safe to embed
// in a stored filename: strip any path, keep a conservative character
// set, never return empty.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
