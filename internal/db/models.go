// Package db provides SQLite-backed key-value storage for persisted
// sessions.
package db

import "time"

// Entry describes a stored blob without its contents.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}
