// Package config loads server configuration.
//
// PRECEDENCE (lowest to highest):
//  1. Built-in defaults
//  2. An optional YAML file (config.yaml at the repo root by default)
//  3. Environment variables
//
// Environment variables win so that a deployment can override a checked-in
// config.yaml without editing it. Secrets (JWT_SECRET, Google credentials)
// should only ever come from the environment — typically a .env file loaded
// by main before Load runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	// Port is the HTTP listen port (env PORT, default 8080).
	Port int `yaml:"port"`

	// DBPath is the SQLite database file (env DB_PATH,
	// default "data/sciptivity.db").
	DBPath string `yaml:"db_path"`

	// UploadDir is the root directory for uploaded project files
	// (env UPLOAD_DIR, default "data/uploads"). Each project gets a
	// subdirectory named by its project ID.
	UploadDir string `yaml:"upload_dir"`

	// StaticDir holds CSS/JS assets served under /static/
	// (env STATIC_DIR, default "web/static").
	StaticDir string `yaml:"static_dir"`

	// PageDir holds the HTML pages served at clean URLs like /dashboard
	// (env PAGE_DIR, default "web/pages").
	PageDir string `yaml:"page_dir"`

	// JWTSecret signs identity tokens (env JWT_SECRET, no default —
	// the server refuses to start without it).
	JWTSecret string `yaml:"-"`

	// GoogleClientID / GoogleClientSecret configure Google sign-in.
	// The client ID alone is enough for POST /api/auth/google (ID-token
	// verification); the secret is additionally needed for the
	// redirect-based OAuth flow. Both optional — without them the
	// Google routes return errors / are not registered.
	GoogleClientID     string `yaml:"-"`
	GoogleClientSecret string `yaml:"-"`

	// GoogleCallbackURL must match the redirect URI registered with
	// Google (env GOOGLE_CALLBACK_URL, defaults to
	// http://localhost:<port>/auth/google/callback).
	GoogleCallbackURL string `yaml:"google_callback_url"`
}

// Load builds the Config from defaults, the YAML file at path (skipped
// silently if the file does not exist), and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:      8080,
		DBPath:    "data/sciptivity.db",
		UploadDir: "data/uploads",
		StaticDir: "web/static",
		PageDir:   "web/pages",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// no config file — defaults + env only
		case err != nil:
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	setIfPresent(&c.DBPath, "DB_PATH")
	setIfPresent(&c.UploadDir, "UPLOAD_DIR")
	setIfPresent(&c.StaticDir, "STATIC_DIR")
	setIfPresent(&c.PageDir, "PAGE_DIR")
	setIfPresent(&c.JWTSecret, "JWT_SECRET")
	setIfPresent(&c.GoogleClientID, "GOOGLE_CLIENT_ID")
	setIfPresent(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setIfPresent(&c.GoogleCallbackURL, "GOOGLE_CALLBACK_URL")

	if c.GoogleCallbackURL == "" {
		c.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", c.Port)
	}

	return nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
