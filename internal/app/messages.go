package app

import (
	"time"

	"github.com/akousteon/akousteon/internal/exporter"
)

// TickMsg refreshes the running clock display.
type TickMsg time.Time

// AutosaveTickMsg triggers a periodic save.
type AutosaveTickMsg struct{}

// SavedMsg reports the outcome of a save.
type SavedMsg struct {
	At  time.Time
	Err error
}

// ExportDoneMsg carries the result of a finished export task.
type ExportDoneMsg struct {
	Result exporter.Result
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
