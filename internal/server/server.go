// Package server is the wiring layer: it assembles the database,
// services, and handlers, maps routes, and owns the HTTP server's
// lifecycle. main.go stays minimal — load config, call New, call Start.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → New() creates:
//	  sqlite.DB → repositories (db.Users / db.Projects)
//	  auth.TokenService / PasswordService / GoogleVerifier / GoogleProvider
//	  service.FileService → service.ProjectService, service.AuthService
//	  handlers → routes
//
// Everything is wired in one place (the composition root); no layer
// constructs its own dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/seifsameh007/sciptivity/internal/auth"
	"github.com/seifsameh007/sciptivity/internal/config"
	"github.com/seifsameh007/sciptivity/internal/handler"
	"github.com/seifsameh007/sciptivity/internal/middleware"
	"github.com/seifsameh007/sciptivity/internal/repository/sqlite"
	"github.com/seifsameh007/sciptivity/internal/service"
)

// Server holds the router and the resources whose lifetimes it owns:
// the database connection (closed on shutdown) and the file service
// (whose orphan sweep runs once at startup).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlite.DB
	files  *service.FileService
}

// New assembles the full dependency chain and registers every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, pages, and the API.
//
// ROUTE STRUCTURE:
//
//	GET    /, /login, /register, /dashboard, /project   → HTML pages
//	GET    /static/*                                    → CSS/JS assets
//	GET    /auth/google/login, /auth/google/callback    → OAuth redirect flow
//	POST   /api/auth/register|login|google              → sign-up / sign-in
//	GET    /api/auth/me                                 → profile        [auth]
//	CRUD   /api/projects, /api/projects/{id}            → projects       [auth]
//	CRUD   /api/projects/{id}/files[/{fileID}]          → attachments    [auth]
func (s *Server) setupRoutes() error {
	// Middleware order matters: request ID first so everything after can
	// log it, Recoverer before the handlers so panics become 500s.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// Google sign-in is optional: the verifier needs only the client ID,
	// the redirect flow additionally needs the secret.
	var verifier *auth.GoogleVerifier
	var provider *auth.GoogleProvider
	if s.config.GoogleClientID != "" {
		verifier = auth.NewGoogleVerifier(s.config.GoogleClientID)
		if s.config.GoogleClientSecret != "" {
			provider = auth.NewGoogleProvider(
				s.config.GoogleClientID,
				s.config.GoogleClientSecret,
				s.config.GoogleCallbackURL,
			)
		}
	}

	// === Services ===
	files, err := service.NewFileService(s.db.Projects(), s.config.UploadDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating file service: %w", err)
	}
	s.files = files

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, verifier, s.logger)
	projectService := service.NewProjectService(s.db.Projects(), files, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, provider, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	fileHandler := handler.NewFileHandler(files, s.logger)

	pages, err := handler.NewPageHandler(s.config.PageDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// === Static files & pages ===
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.NotFound(pages.NotFound())
	s.router.Get("/", pages.Page("index.html"))
	s.router.Get("/login", pages.Page("login.html"))
	s.router.Get("/register", pages.Page("register.html"))
	s.router.Get("/dashboard", pages.Page("dashboard.html"))
	s.router.Get("/project", pages.Page("project.html"))

	// === OAuth redirect flow ===
	s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
	s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/google", authHandler.HandleGoogle)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.HandleMe)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.HandleList)
				r.Post("/", projectHandler.HandleCreate)
				r.Get("/{id}", projectHandler.HandleGet)
				r.Put("/{id}", projectHandler.HandleUpdate)
				r.Delete("/{id}", projectHandler.HandleDelete)

				r.Post("/{id}/files", fileHandler.HandleUpload)
				r.Get("/{id}/files/{fileID}", fileHandler.HandleDownload)
				r.Delete("/{id}/files/{fileID}", fileHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests
// (30s), close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	// Reclaim disk space left by crashes between a document write and
	// its file operation. Background — startup never waits on it, and a
	// sweep failure is log-worthy but not fatal.
	go func() {
		if err := s.files.SweepOrphans(context.Background()); err != nil {
			s.logger.Warn("orphan sweep failed", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		// Generous read/write timeouts: uploads can be 10 files of
		// 50 MiB each.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
