package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every variable Load reads so tests are not affected by
// the developer's shell. t.Setenv restores the originals automatically.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "UPLOAD_DIR", "STATIC_DIR", "PAGE_DIR",
		"JWT_SECRET", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"GOOGLE_CALLBACK_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/sciptivity.db" {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.GoogleCallbackURL != "http://localhost:8080/auth/google/callback" {
		t.Errorf("GoogleCallbackURL = %q, want derived default", cfg.GoogleCallbackURL)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	clearEnv(t)

	if _, err := Load("does/not/exist.yaml"); err != nil {
		t.Fatalf("Load() with missing file: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("port: 9090\ndb_path: /tmp/test.db\nupload_dir: /tmp/uploads\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want /tmp/test.db", cfg.DBPath)
	}
	// Untouched fields keep their defaults
	if cfg.StaticDir != "web/static" {
		t.Errorf("StaticDir = %q, want default", cfg.StaticDir)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9090\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv("PORT", "3000")
	t.Setenv("JWT_SECRET", "env-secret-at-least-16-chars")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want env override 3000", cfg.Port)
	}
	if cfg.JWTSecret != "env-secret-at-least-16-chars" {
		t.Errorf("JWTSecret not taken from env")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}
