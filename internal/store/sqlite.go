package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore persists snapshots in a single SQLite database, one row per
// (version, key) pair. A separate versions table makes freshly opened, still
// empty generations enumerable.
type SQLiteStore struct {
	db *sql.DB
	// the driver serializes writes internally, but we hold a mutex across
	// multi-statement operations (Delete) so enumeration never sees a
	// half-removed generation
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the store at the given path.
// Use "file::memory:?cache=shared" for an in-memory store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS versions (
			version TEXT PRIMARY KEY,
			created_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			version TEXT,
			key TEXT,
			bytes BLOB,
			stored_at INTEGER,
			PRIMARY KEY (version, key)
		)`,
		`PRAGMA journal_mode=WAL`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing store db: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Open(version string) (Handle, error) {
	_, err := s.db.Exec("INSERT OR IGNORE INTO versions (version, created_at) VALUES (?, ?)",
		version, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("opening store version %q: %w", version, err)
	}
	return &sqliteHandle{s: s, version: version}, nil
}

func (s *SQLiteStore) Versions() ([]string, error) {
	rows, err := s.db.Query("SELECT version FROM versions ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("listing store versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("listing store versions: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) Delete(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM snapshots WHERE version = ?", version); err != nil {
		return fmt.Errorf("deleting snapshots for version %q: %w", version, err)
	}
	if _, err := s.db.Exec("DELETE FROM versions WHERE version = ?", version); err != nil {
		return fmt.Errorf("deleting version %q: %w", version, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteHandle struct {
	s       *SQLiteStore
	version string
}

func (h *sqliteHandle) Version() string {
	return h.version
}

func (h *sqliteHandle) Put(key string, snap Snapshot) error {
	data, err := Serialize(snap)
	if err != nil {
		return fmt.Errorf("serializing snapshot for %q: %w", key, err)
	}
	_, err = h.s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (version, key, bytes, stored_at) VALUES (?, ?, ?, ?)",
		h.version, key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing snapshot for %q: %w", key, err)
	}
	return nil
}

func (h *sqliteHandle) Get(key string) (Snapshot, error) {
	var data []byte
	err := h.s.db.QueryRow(
		"SELECT bytes FROM snapshots WHERE version = ? AND key = ?",
		h.version, key).Scan(&data)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot for %q: %w", key, err)
	}
	snap, err := Deserialize(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot for %q: %w", key, err)
	}
	return snap, nil
}
