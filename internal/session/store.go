package session

import (
	"fmt"

	"github.com/akousteon/akousteon/internal/timer"
)

// DefaultKey is the blob-store key a session is saved under.
const DefaultKey = "app"

// CorruptSuffix is appended to a key to name the copy of a blob that failed
// to load.
const CorruptSuffix = ".corrupt"

// BlobStore is an opaque key-value store for persisted sessions.
// Get returns a nil slice and no error when the key is absent.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Load restores the session saved under key. An absent key yields an empty
// session. When the stored blob cannot be read or decoded, Load still
// returns an empty session together with the error so the caller can
// report it and carry on.
func Load(store BlobStore, key string, clock timer.Clock) (*Session, error) {
	data, err := store.Get(key)
	if err != nil {
		return New(clock), fmt.Errorf("load session %q: %w", key, err)
	}
	if data == nil {
		return New(clock), nil
	}
	s, err := Decode(data, clock)
	if err != nil {
		return New(clock), fmt.Errorf("load session %q: %w", key, err)
	}
	return s, nil
}

// Save encodes s and stores it under key.
func Save(store BlobStore, key string, s *Session) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return fmt.Errorf("save session %q: %w", key, err)
	}
	return nil
}

// Preserve copies the blob under key to key+CorruptSuffix, replacing an
// older copy, so that a later Save cannot destroy it. It returns the key of
// the copy, or "" when key holds nothing.
func Preserve(store BlobStore, key string) (string, error) {
	data, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("preserve session %q: %w", key, err)
	}
	if data == nil {
		return "", nil
	}
	backup := key + CorruptSuffix
	if err := store.Put(backup, data); err != nil {
		return "", fmt.Errorf("preserve session %q: %w", key, err)
	}
	return backup, nil
}
