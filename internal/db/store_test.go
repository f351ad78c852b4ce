package db

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// createTestDB creates an in-memory SQLite database with the state schema.
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	rawDB := createTestDB(t)
	t.Cleanup(func() { rawDB.Close() })
	return newStore(rawDB)
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	value, err := store.Get("app")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != nil {
		t.Errorf("value = %q, want nil", value)
	}
}

func TestPutGet(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put("app", []byte(`{"speeches":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, err := store.Get("app")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != `{"speeches":[]}` {
		t.Errorf("value = %q", value)
	}
}

func TestPutReplaces(t *testing.T) {
	store := newTestStore(t)
	first := time.Unix(1_700_000_000, 0)
	second := first.Add(90 * time.Second)

	store.now = func() time.Time { return first }
	store.Put("app", []byte("one"))
	store.now = func() time.Time { return second }
	store.Put("app", []byte("three"))

	value, _ := store.Get("app")
	if !bytes.Equal(value, []byte("three")) {
		t.Errorf("value = %q, want %q", value, "three")
	}

	entry, err := store.Entry("app")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry, got nil")
	}
	if entry.Size != 5 {
		t.Errorf("size = %d, want 5", entry.Size)
	}
	if !entry.UpdatedAt.Equal(second) {
		t.Errorf("updatedAt = %v, want %v", entry.UpdatedAt, second)
	}
}

func TestPutEmptyValue(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put("empty", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, err := store.Get("empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value == nil || len(value) != 0 {
		t.Errorf("value = %v, want empty non-nil", value)
	}
}

func TestEntryMissing(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.Entry("nope")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil, got entry %q", entry.Key)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "akousteon.sqlite")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put("app", []byte("persisted")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer ro.Close()

	value, err := ro.Get("app")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "persisted" {
		t.Errorf("value = %q, want %q", value, "persisted")
	}
	if err := ro.Put("app", []byte("nope")); err == nil {
		t.Error("Put on a read-only store should fail")
	}
}

func TestTimeFromUnix(t *testing.T) {
	want := time.Unix(1_700_000_000, 500_000_000)
	got := timeFromUnix(unixFromTime(want))
	if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}
