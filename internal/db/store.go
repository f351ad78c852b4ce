package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updatedAt REAL NOT NULL
	);
`

// Store is a key-value blob store in a single SQLite table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "akousteon", "akousteon.sqlite")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "akousteon", "akousteon.sqlite")
}

// Open opens the database read-write with WAL, creating the file, its
// directory and the schema when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return newStore(db), nil
}

// OpenReadOnly opens an existing database in read-only mode.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the blob stored under key, or nil if there is none.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query state: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put stores value under key, replacing any previous blob.
func (s *Store) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.Exec(`
		INSERT INTO state (key, value, updatedAt)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, key, value, unixFromTime(s.now()))
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Entry returns metadata for key, or nil if it is absent.
func (s *Store) Entry(key string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT key, length(value), updatedAt
		FROM state
		WHERE key = ?
	`, key)

	var e Entry
	var updatedAt float64
	if err := row.Scan(&e.Key, &e.Size, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.UpdatedAt = timeFromUnix(updatedAt)
	return &e, nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
