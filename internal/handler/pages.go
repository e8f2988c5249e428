package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// PageHandler serves the HTML pages under clean URLs: /login serves
// login.html, /dashboard serves dashboard.html, and so on. The pages are
// static shells — all data comes from the JSON API after load, so there
// is nothing to template server-side.
type PageHandler struct {
	pageDir string
	logger  *slog.Logger
}

// NewPageHandler creates a PageHandler and verifies the page directory
// exists, so a misconfigured path fails at startup instead of on the
// first request.
func NewPageHandler(pageDir string, logger *slog.Logger) (*PageHandler, error) {
	if _, err := os.Stat(pageDir); err != nil {
		return nil, err
	}
	return &PageHandler{pageDir: pageDir, logger: logger}, nil
}

// Page returns a handler serving one named page file.
func (h *PageHandler) Page(name string) http.HandlerFunc {
	path := filepath.Join(h.pageDir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

// NotFound is the router's catch-all: unknown API paths get a JSON 404,
// everything else falls back to the landing page so stale links land
// somewhere useful.
func (h *PageHandler) NotFound() http.HandlerFunc {
	landing := h.Page("index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "no such endpoint",
			})
			return
		}
		landing(w, r)
	}
}
