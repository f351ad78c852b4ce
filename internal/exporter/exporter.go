// Package exporter writes session exports to disk off the UI goroutine.
//
// A Task is started with a context, can be cancelled, and closes its Done
// channel once its Result is available.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoPath is returned when an export is started without a destination.
var ErrNoPath = errors.New("no export path")

// Result is the outcome of one export.
type Result struct {
	Path    string
	Bytes   int
	Elapsed time.Duration
	Err     error
}

// Task is a running export.
type Task struct {
	path   string
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Start writes data to path in the background. The file is written to a
// temporary sibling first and renamed into place, so a cancelled or failed
// export never leaves a truncated file at path.
func Start(ctx context.Context, path string, data []byte) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		path:   path,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	snapshot := append([]byte(nil), data...)
	go func() {
		defer cancel()
		started := time.Now()
		n, err := write(ctx, path, snapshot)
		t.result = Result{Path: path, Bytes: n, Elapsed: time.Since(started), Err: err}
		close(t.done)
	}()
	return t
}

// Path returns the destination of the export.
func (t *Task) Path() string { return t.path }

// Done is closed when the export has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (t *Task) Result() Result {
	select {
	case <-t.done:
		return t.result
	default:
		return Result{Path: t.path}
	}
}

// Cancel aborts the export if it has not completed yet.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the export finishes or ctx ends. When ctx ends first
// the task is cancelled and its own result is still awaited.
func (t *Task) Wait(ctx context.Context) Result {
	select {
	case <-t.done:
	case <-ctx.Done():
		t.cancel()
		<-t.done
	}
	return t.result
}

func write(ctx context.Context, path string, data []byte) (int, error) {
	if path == "" {
		return 0, ErrNoPath
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("export cancelled: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	n, err := tmp.Write(data)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close export: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("export cancelled: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("chmod export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("rename export: %w", err)
	}
	return n, nil
}
