package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kirby/internal/logging"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current history database schema.
const SchemaVersion = "1"

// DB is a SQLite database shared by every SQLiteBackend of a session.
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenDB opens (creating if needed) the history database at path.
// Use ":memory:" for a throwaway database.
func OpenDB(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises
	// writers within the process.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, path: path}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Opened history database %s", path)
	return d, nil
}

// initialize creates the tables and checks the schema version.
func (d *DB) initialize() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			location TEXT NOT NULL,
			seq INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (location, seq)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	var version string
	err = d.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = d.db.Exec("INSERT INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion)
		if err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version != SchemaVersion:
		return fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return nil
}

// Path returns the database path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// SQLiteBackend stores snapshots as JSON rows keyed by (location, seq).
// Locations are collection names.
type SQLiteBackend[T any] struct {
	db *DB
}

// NewSQLiteBackend returns a backend for snapshots of type T on db.
func NewSQLiteBackend[T any](db *DB) *SQLiteBackend[T] {
	return &SQLiteBackend[T]{db: db}
}

// Load returns the snapshots for location ordered by sequence.
func (b *SQLiteBackend[T]) Load(location string) ([]T, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()

	rows, err := b.db.db.Query(
		"SELECT body FROM snapshots WHERE location = ? ORDER BY seq ASC",
		location,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var history []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var snap T
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot of %s: %w", location, err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history, nil
}

// Save replaces every row for location inside one transaction.
func (b *SQLiteBackend[T]) Save(location string, history []T) error {
	bodies := make([]string, len(history))
	for i, snap := range history {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot %d: %w", i, err)
		}
		bodies[i] = string(data)
	}

	b.db.mu.Lock()
	defer b.db.mu.Unlock()

	tx, err := b.db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshots WHERE location = ?", location); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	for seq, body := range bodies {
		if _, err := tx.Exec(
			"INSERT INTO snapshots (location, seq, body) VALUES (?, ?, ?)",
			location, seq, body,
		); err != nil {
			return fmt.Errorf("failed to insert snapshot %d: %w", seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// Locations lists every location with stored snapshots.
func (d *DB) Locations() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.Query("SELECT DISTINCT location FROM snapshots ORDER BY location")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
