package mcpserver

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/timer"
)

type memStore struct {
	data map[string][]byte
	err  error
}

func (s *memStore) Get(key string) ([]byte, error) { return s.data[key], s.err }
func (s *memStore) Put(key string, value []byte) error {
	s.data[key] = value
	return nil
}

func savedSession(t *testing.T) []byte {
	t.Helper()
	clock := timer.NewManualClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s := session.New(clock)
	s.SetCategories([]string{"f", "h"})
	ada := s.AddSpeaker("Ada", "f")
	bob := s.AddSpeaker("Bob", "h")
	s.Enqueue(ada)
	s.Enqueue(bob)

	s.ToggleTimer() // Ada takes the floor
	clock.Advance(63 * time.Second)
	s.Finalize() // Bob takes the floor
	s.SetSpeechCategory(0, "h")

	blob, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return blob
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func newTestServer(t *testing.T) *Server {
	store := &memStore{data: map[string][]byte{"app": savedSession(t)}}
	return New(store, "", "test", nil)
}

func TestSessionStatus(t *testing.T) {
	srv := newTestServer(t)
	res, err := srv.handleStatus(context.Background(), call("session_status", nil))
	if err != nil {
		t.Fatalf("handleStatus: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	got := resultText(t, res)
	for _, want := range []string{"speaking: Bob", "queue: empty", "speakers: 2", "speeches: 1 (01m03s)"} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}
}

func TestCategoryTotals(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleTotals(context.Background(), call("category_totals", nil))
	if err != nil {
		t.Fatalf("handleTotals: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, "h  01m03s") {
		t.Errorf("text totals = %q", got)
	}

	res, _ = srv.handleTotals(context.Background(), call("category_totals", map[string]any{"format": "yaml"}))
	if got := resultText(t, res); !strings.Contains(got, "seconds: 63") {
		t.Errorf("yaml totals = %q", got)
	}

	res, _ = srv.handleTotals(context.Background(), call("category_totals", map[string]any{"format": "xml"}))
	if !res.IsError {
		t.Error("unknown format should be a tool error")
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	res, err := srv.handleExport(context.Background(), call("export_csv", nil))
	if err != nil {
		t.Fatalf("handleExport: %v", err)
	}
	if got := resultText(t, res); got != "63,\"h\"\n" {
		t.Errorf("export = %q, want %q", got, "63,\"h\"\n")
	}
}

func TestStoreErrorIsToolError(t *testing.T) {
	srv := New(&memStore{err: errors.New("locked")}, "app", "test", nil)
	res, err := srv.handleStatus(context.Background(), call("session_status", nil))
	if err != nil {
		t.Fatalf("handler should not return a protocol error: %v", err)
	}
	if !res.IsError {
		t.Error("store failure should be a tool error")
	}
}

func TestCorruptBlobIsToolError(t *testing.T) {
	srv := New(&memStore{data: map[string][]byte{"app": []byte(`{"bogus":1}`)}}, "app", "test", nil)
	res, _ := srv.handleExport(context.Background(), call("export_csv", nil))
	if !res.IsError {
		t.Error("undecodable blob should be a tool error")
	}
}

func TestEmptyStore(t *testing.T) {
	srv := New(&memStore{data: map[string][]byte{}}, "app", "test", nil)
	res, _ := srv.handleStatus(context.Background(), call("session_status", nil))
	if res.IsError {
		t.Fatalf("absent key should read as an empty session: %s", resultText(t, res))
	}
	if got := resultText(t, res); !strings.Contains(got, "speeches: 0") {
		t.Errorf("status = %q", got)
	}
}

func TestReadsFromSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	store, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put("app", savedSession(t)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store.Close()

	ro, err := db.OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer ro.Close()

	srv := New(ro, "app", "test", nil)
	res, _ := srv.handleExport(context.Background(), call("export_csv", nil))
	if got := resultText(t, res); got != "63,\"h\"\n" {
		t.Errorf("export = %q", got)
	}

	res, _ = srv.handleStatus(context.Background(), call("session_status", nil))
	if got := resultText(t, res); !strings.Contains(got, "saved at: ") {
		t.Errorf("status should report the save time:\n%s", got)
	}
	res, _ = srv.handleTotals(context.Background(), call("category_totals", map[string]any{"format": "yaml"}))
	if got := resultText(t, res); !strings.Contains(got, "saved_at: ") {
		t.Errorf("yaml totals should carry saved_at:\n%s", got)
	}
}

func TestStatusWithoutEntryStore(t *testing.T) {
	res, _ := newTestServer(t).handleStatus(context.Background(), call("session_status", nil))
	if got := resultText(t, res); strings.Contains(got, "saved at") {
		t.Errorf("memory store has no save time:\n%s", got)
	}
}

func TestToolsRegistered(t *testing.T) {
	tools := newTestServer(t).MCPServer().ListTools()
	for _, name := range []string{"session_status", "category_totals", "export_csv"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}
