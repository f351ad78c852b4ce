package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akousteon/akousteon/internal/config"
	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/timer"
)

func testDeps(t *testing.T) *Dependencies {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "state.sqlite")
	cfg.ExportDir = filepath.Join(dir, "exports")
	cfg.LogFile = filepath.Join(dir, "akousteon.log")
	cfg.Categories = []string{"f", "h"}
	return &Dependencies{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// seed saves a session with a 63s "h" speech and a 10s uncategorized one.
func seed(t *testing.T, deps *Dependencies) {
	t.Helper()
	clock := timer.NewManualClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s := session.New(clock)
	s.SetCategories(deps.Config.Categories)
	for _, d := range []time.Duration{63 * time.Second, 10 * time.Second} {
		s.ToggleTimer()
		clock.Advance(d)
		s.Finalize()
	}
	s.SetSpeechCategory(0, "h")

	store, err := db.Open(deps.Config.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if err := session.Save(store, deps.Config.StateKey, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func execute(t *testing.T, deps *Dependencies, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExportToStdout(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	out, err := execute(t, deps, "", "export", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out != "63,\"h\"\n10,\"\"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestExportToFile(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)
	path := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, deps, "", "export", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output should name the file: %q", out)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(got) != "63,\"h\"\n10,\"\"\n" {
		t.Errorf("file = %q", got)
	}
}

func TestExportDefaultPath(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	if _, err := execute(t, deps, "", "export"); err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(deps.Config.ExportDir, "speeches-*.csv"))
	if len(matches) != 1 {
		t.Errorf("export dir matches = %v, want one dated file", matches)
	}
}

func TestTotalsText(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	out, err := execute(t, deps, "", "totals")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	for _, want := range []string{"2 speeches, 01m13s total", "   saved ", "f  00m00s", "h  01m03s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTotalsYAML(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	out, err := execute(t, deps, "", "totals", "-o", "yaml")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !strings.Contains(out, "speeches: 2") || !strings.Contains(out, "seconds: 63") {
		t.Errorf("yaml output = %q", out)
	}
}

func TestTotalsBadFormat(t *testing.T) {
	deps := testDeps(t)
	if _, err := execute(t, deps, "", "totals", "-o", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestTotalsSeedsCategoriesForFreshState(t *testing.T) {
	deps := testDeps(t)
	out, err := execute(t, deps, "", "totals")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !strings.Contains(out, "0 speeches") || !strings.Contains(out, "h  00m00s") {
		t.Errorf("output = %q", out)
	}
}

func TestClearDeclined(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	out, err := execute(t, deps, "n\n", "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "Clear 2 speeches? [y/N]") {
		t.Errorf("missing prompt: %q", out)
	}
	out, _ = execute(t, deps, "", "export", "-")
	if out != "63,\"h\"\n10,\"\"\n" {
		t.Errorf("declined clear changed state: %q", out)
	}
}

func TestClearConfirmed(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	if _, err := execute(t, deps, "y\n", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, _ := execute(t, deps, "", "export", "-")
	if out != "" {
		t.Errorf("export after clear = %q, want empty", out)
	}
}

func TestClearYesFlag(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)

	out, err := execute(t, deps, "", "clear", "--yes")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if strings.Contains(out, "[y/N]") {
		t.Error("--yes should not prompt")
	}
	if !strings.Contains(out, "Cleared 2 speeches") {
		t.Errorf("output = %q", out)
	}
}

func TestClearNothing(t *testing.T) {
	deps := testDeps(t)

	out, err := execute(t, deps, "", "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "Nothing to clear") || strings.Contains(out, "[y/N]") {
		t.Errorf("output = %q", out)
	}
}

func TestCorruptStateIsReported(t *testing.T) {
	deps := testDeps(t)
	store, err := db.Open(deps.Config.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Put(deps.Config.StateKey, []byte(`{"speeches":[{"duration":1}]}`))
	store.Close()

	if _, err := execute(t, deps, "", "totals"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := execute(t, deps, "", "clear", "--yes"); err == nil {
		t.Fatal("clear must not overwrite state it could not read")
	}
}

func TestRestorePreservesCorruptState(t *testing.T) {
	deps := testDeps(t)
	store, err := db.Open(deps.Config.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	bad := []byte(`{"speeches":[{"duration":1}]}`)
	store.Put(deps.Config.StateKey, bad)

	s, warning, err := restoreSession(store, deps.Config, deps.Logger)
	if err != nil {
		t.Fatalf("restoreSession: %v", err)
	}
	if !errors.Is(warning, session.ErrMissingField) {
		t.Errorf("warning = %v, want the decode error", warning)
	}
	if !strings.Contains(warning.Error(), "app.corrupt") {
		t.Errorf("warning should name the backup: %v", warning)
	}
	if len(s.Categories()) != 2 {
		t.Errorf("categories = %v, want the configured ones", s.Categories())
	}

	// The TUI saves over the original key; the copy must survive that.
	if err := session.Save(store, deps.Config.StateKey, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	kept, err := store.Get(deps.Config.StateKey + session.CorruptSuffix)
	if err != nil {
		t.Fatalf("Get backup: %v", err)
	}
	if !bytes.Equal(kept, bad) {
		t.Errorf("backup = %q, want %q", kept, bad)
	}
}

// putFails reads from a real store but rejects every write.
type putFails struct{ session.BlobStore }

func (putFails) Put(string, []byte) error { return errors.New("read-only") }

func TestRestoreRefusesWhenBackupFails(t *testing.T) {
	deps := testDeps(t)
	store, err := db.Open(deps.Config.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	store.Put(deps.Config.StateKey, []byte(`not json`))

	if _, _, err := restoreSession(putFails{store}, deps.Config, deps.Logger); err == nil {
		t.Fatal("expected an error when the unreadable state cannot be kept")
	}
}

func TestRestoreCleanState(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)
	store, err := db.Open(deps.Config.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	s, warning, err := restoreSession(store, deps.Config, deps.Logger)
	if err != nil || warning != nil {
		t.Fatalf("restoreSession: warning=%v err=%v", warning, err)
	}
	if len(s.Speeches()) != 2 {
		t.Errorf("speeches = %d, want 2", len(s.Speeches()))
	}
	if backup, _ := store.Get(deps.Config.StateKey + session.CorruptSuffix); backup != nil {
		t.Errorf("clean state should not be copied, got %q", backup)
	}
}

func TestDBFlagOverridesConfig(t *testing.T) {
	deps := testDeps(t)
	seed(t, deps)
	seeded := deps.Config.DBPath
	other := filepath.Join(t.TempDir(), "other.sqlite")

	out, err := execute(t, deps, "", "--db", other, "export", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out != "" {
		t.Errorf("export from an empty db = %q", out)
	}
	if deps.Config.DBPath == seeded {
		t.Error("--db should replace the configured path")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, &Dependencies{}, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "akousteon dev") {
		t.Errorf("output = %q", out)
	}
}
