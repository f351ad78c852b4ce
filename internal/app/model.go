package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akousteon/akousteon/internal/exporter"
	"github.com/akousteon/akousteon/internal/session"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusSpeakers PanelFocus = iota
	FocusQueue
	FocusSpeeches
	FocusCategories
	panelCount
)

// Mode is the input state of the model.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddSpeaker
	ModeAddCategory
	ModeExportPath
	ModeConfirmClear
)

const tickInterval = 200 * time.Millisecond

// Options wires the model to its collaborators. Store may be nil, in which
// case nothing is persisted.
type Options struct {
	Store     session.BlobStore
	StateKey  string
	ExportDir string
	Autosave  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time

	// LoadErr is shown in the error bar on start, for a saved session that
	// could not be restored.
	LoadErr error
}

// Model is the root bubbletea model for the akousteon TUI.
type Model struct {
	session *session.Session
	keys    KeyMap

	// Persistence
	store     session.BlobStore
	stateKey  string
	autosave  time.Duration
	lastSaved time.Time

	// Export
	exportDir string
	export    *exporter.Task

	// UI state
	focusedPanel PanelFocus
	selected     [panelCount]int
	width        int
	height       int

	// Prompts
	mode            Mode
	input           textinput.Model
	speakerCategory int // index into categories, -1 for none

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string

	logger *slog.Logger
	now    func() time.Time
}

// New creates a Model driving s.
func New(s *session.Session, opts Options) Model {
	if opts.StateKey == "" {
		opts.StateKey = session.DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ti := textinput.New()
	ti.CharLimit = 256

	m := Model{
		session:         s,
		keys:            DefaultKeyMap(),
		store:           opts.Store,
		stateKey:        opts.StateKey,
		autosave:        opts.Autosave,
		exportDir:       opts.ExportDir,
		focusedPanel:    FocusSpeakers,
		input:           ti,
		speakerCategory: -1,
		statusText:      "Ready",
		logger:          opts.Logger,
		now:             opts.Now,
	}
	if opts.LoadErr != nil {
		m.setError(opts.LoadErr.Error(), false)
	}
	return m
}

// Session returns the session driven by the model.
func (m Model) Session() *session.Session { return m.session }

// PendingExport returns the export still in flight, if any.
func (m Model) PendingExport() *exporter.Task { return m.export }

// Init starts the display tick and the autosave timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), autosaveCmd(m.autosave))
}

// tickCmd refreshes the clock display.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// autosaveCmd schedules the next periodic save. A zero interval disables it.
func autosaveCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return AutosaveTickMsg{}
	})
}

// saveCmd writes an encoded session off the update loop.
func saveCmd(store session.BlobStore, key string, blob []byte, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		if err := store.Put(key, blob); err != nil {
			return SavedMsg{Err: fmt.Errorf("save session: %w", err)}
		}
		return SavedMsg{At: now()}
	}
}

// waitExportCmd waits for an export task to report.
func waitExportCmd(task *exporter.Task) tea.Cmd {
	return func() tea.Msg {
		<-task.Done()
		return ExportDoneMsg{Result: task.Result()}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// save encodes the session now and returns the command writing it.
func (m *Model) save() tea.Cmd {
	if m.store == nil {
		return nil
	}
	blob, err := m.session.Encode()
	if err != nil {
		m.setError(err.Error(), false)
		return nil
	}
	return saveCmd(m.store, m.stateKey, blob, m.now)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.session.ApplyPendingDeletions()

	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case AutosaveTickMsg:
		return m, tea.Batch(m.save(), autosaveCmd(m.autosave))

	case SavedMsg:
		if msg.Err != nil {
			m.logger.Error("save failed", "key", m.stateKey, "err", msg.Err)
			m.setError(msg.Err.Error(), true)
			return m, clearTransientErrorCmd()
		}
		m.lastSaved = msg.At
		m.logger.Debug("session saved", "key", m.stateKey)
		return m, nil

	case ExportDoneMsg:
		m.export = nil
		r := msg.Result
		if r.Err != nil {
			m.logger.Error("export failed", "path", r.Path, "err", r.Err)
			m.statusText = "Export failed"
			m.setError(r.Err.Error(), true)
			return m, clearTransientErrorCmd()
		}
		m.logger.Info("export written", "path", r.Path, "bytes", r.Bytes)
		m.statusText = "Exported to " + r.Path
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	if m.mode != ModeNormal && m.mode != ModeConfirmClear {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Interrupt) {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeConfirmClear:
		return m.handleConfirmKey(msg)
	case ModeAddSpeaker, ModeAddCategory, ModeExportPath:
		return m.handlePromptKey(msg)
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Toggle):
		m.session.Apply(session.ToggleTimer{})
		if m.session.Timespan().IsRunning() {
			m.statusText = "Running"
		} else {
			m.statusText = "Paused"
		}
		return m, nil

	case key.Matches(msg, k.Finalize):
		n := len(m.session.Speeches())
		m.session.Apply(session.FinalizeSpeech{})
		if len(m.session.Speeches()) > n {
			m.statusText = "Speech recorded"
			m.selected[FocusSpeeches] = 0
		}
		return m, nil

	case key.Matches(msg, k.Skip):
		m.session.Apply(session.Dequeue{})
		m.clampSelection()
		return m, nil

	case key.Matches(msg, k.NextPanel):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case key.Matches(msg, k.PrevPanel):
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil

	case key.Matches(msg, k.Up):
		if m.selected[m.focusedPanel] > 0 {
			m.selected[m.focusedPanel]--
		}
		return m, nil

	case key.Matches(msg, k.Down):
		if m.selected[m.focusedPanel] < m.panelLen(m.focusedPanel)-1 {
			m.selected[m.focusedPanel]++
		}
		return m, nil

	case key.Matches(msg, k.Add):
		switch m.focusedPanel {
		case FocusCategories:
			return m, m.openPrompt(ModeAddCategory, "")
		default:
			m.speakerCategory = -1
			return m, m.openPrompt(ModeAddSpeaker, "")
		}

	case key.Matches(msg, k.Delete):
		m.deleteSelected()
		return m, nil

	case key.Matches(msg, k.Enqueue):
		if m.focusedPanel == FocusSpeakers && m.session.Roster().Len() > 0 {
			m.session.Apply(session.Enqueue{Index: m.selected[FocusSpeakers]})
		}
		return m, nil

	case key.Matches(msg, k.Category):
		if m.focusedPanel == FocusSpeeches {
			if idx, ok := m.selectedSpeech(); ok {
				m.session.Apply(session.CycleSpeechCategory{Index: idx})
			}
		}
		return m, nil

	case key.Matches(msg, k.Export):
		if m.export != nil {
			return m, nil
		}
		return m, m.openPrompt(ModeExportPath, m.defaultExportPath())

	case key.Matches(msg, k.Clear):
		m.mode = ModeConfirmClear
		return m, nil

	case key.Matches(msg, k.Save):
		if m.store == nil {
			return m, nil
		}
		m.statusText = "Saved"
		return m, m.save()

	case key.Matches(msg, k.Cancel):
		if m.export != nil {
			m.export.Cancel()
			m.statusText = "Cancelling export..."
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.session.Apply(session.ClearSpeeches{})
		m.selected[FocusSpeeches] = 0
		m.mode = ModeNormal
		m.statusText = "Speeches cleared"
		m.logger.Info("speeches cleared")
	case key.Matches(msg, m.keys.No):
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		value := m.input.Value()
		mode := m.mode
		m.closePrompt()
		return m.submit(mode, value)

	case m.mode == ModeAddSpeaker && key.Matches(msg, m.keys.Cycle):
		n := len(m.session.Categories())
		if n > 0 {
			m.speakerCategory++
			if m.speakerCategory >= n {
				m.speakerCategory = -1
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(mode Mode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case ModeAddSpeaker:
		if value == "" {
			return m, nil
		}
		m.session.Apply(session.AddSpeaker{Name: value, Category: m.speakerCategoryLabel()})
		m.selected[FocusSpeakers] = m.session.Roster().Len() - 1

	case ModeAddCategory:
		m.session.Apply(session.AddCategory{Category: value})
		m.selected[FocusCategories] = max(0, len(m.session.Categories())-1)

	case ModeExportPath:
		if value == "" {
			return m, nil
		}
		task := exporter.Start(context.Background(), value, m.session.ExportBytes())
		m.export = task
		m.statusText = "Exporting..."
		m.logger.Debug("export started", "path", value)
		return m, waitExportCmd(task)
	}
	return m, nil
}

func (m *Model) openPrompt(mode Mode, value string) tea.Cmd {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	switch mode {
	case ModeAddSpeaker:
		m.input.Placeholder = "name"
	case ModeAddCategory:
		m.input.Placeholder = "category"
	case ModeExportPath:
		m.input.Placeholder = "path"
	}
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) deleteSelected() {
	sel := m.selected[m.focusedPanel]
	switch m.focusedPanel {
	case FocusSpeakers:
		m.session.Apply(session.DeleteSpeaker{Index: sel})
	case FocusQueue:
		m.session.Apply(session.RemoveFromQueue{Position: sel})
	case FocusSpeeches:
		idx, ok := m.selectedSpeech()
		if !ok {
			return
		}
		n := len(m.session.Speeches())
		m.session.Apply(session.DeleteSpeech{Index: idx})
		// The removal lands on the next update.
		m.selected[FocusSpeeches] = min(sel, max(0, n-2))
		return
	case FocusCategories:
		m.session.Apply(session.RemoveCategory{Index: sel})
	}
	m.clampSelection()
}

// selectedSpeech maps the speeches-panel selection to a speech index. The
// panel lists the newest speech first.
func (m Model) selectedSpeech() (int, bool) {
	n := len(m.session.Speeches())
	row := m.selected[FocusSpeeches]
	if row < 0 || row >= n {
		return 0, false
	}
	return n - 1 - row, true
}

func (m Model) panelLen(p PanelFocus) int {
	switch p {
	case FocusSpeakers:
		return m.session.Roster().Len()
	case FocusQueue:
		return len(m.session.Roster().Queue())
	case FocusSpeeches:
		return len(m.session.Speeches())
	case FocusCategories:
		return len(m.session.Categories())
	}
	return 0
}

func (m *Model) clampSelection() {
	for p := FocusSpeakers; p < panelCount; p++ {
		n := m.panelLen(p)
		if m.selected[p] >= n {
			m.selected[p] = max(0, n-1)
		}
	}
}

func (m Model) speakerCategoryLabel() string {
	cats := m.session.Categories()
	if m.speakerCategory < 0 || m.speakerCategory >= len(cats) {
		return ""
	}
	return cats[m.speakerCategory]
}

func (m Model) defaultExportPath() string {
	name := fmt.Sprintf("speeches-%s.csv", m.now().Format("20060102-1504"))
	return filepath.Join(m.exportDir, name)
}

func (m *Model) setError(msg string, transient bool) {
	m.errorMessage = msg
	m.errorTransient = transient
}
