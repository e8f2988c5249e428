// Package sqlite implements the repository interfaces using SQLite as
// the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation
// of the SQLite sources — works everywhere Go works.
//
// DOCUMENT-STYLE STORAGE:
// A project is stored as one row with its script sections and file
// metadata embedded as JSON columns. That keeps the aggregate's
// atomicity trivially right: saving a project is a single UPDATE, and
// SQLite makes single-statement writes atomic. The embedded lists are
// never addressed independently, so there is nothing to join.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and owns the schema. The repository
// implementations hang off the Users and Projects accessors — they share
// the pool, so one *DB serves the whole server.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this pool.
func (db *DB) Users() *UserRepo {
	return &UserRepo{conn: db.conn}
}

// Projects returns the project repository backed by this pool.
func (db *DB) Projects() *ProjectRepo {
	return &ProjectRepo{conn: db.conn}
}

// New opens (or creates) the SQLite database at dbPath and runs
// migrations. Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — important for
	// a web server where autosave writes arrive while dashboards read.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this so the WAL is
// flushed on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it safe to
// run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			google_id     TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id
			ON users(google_id) WHERE google_id != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// script and files hold JSON arrays — the embedded parts of the
	// project document.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL REFERENCES users(id),
			name               TEXT NOT NULL,
			start_date         DATETIME NOT NULL,
			deadline           DATETIME,
			deadline_type      TEXT NOT NULL DEFAULT 'open',
			category           TEXT NOT NULL DEFAULT 'personal',
			script             TEXT NOT NULL DEFAULT '[]',
			notes              TEXT NOT NULL DEFAULT '',
			files              TEXT NOT NULL DEFAULT '[]',
			completion_percent INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user_created
			ON projects(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	return nil
}
