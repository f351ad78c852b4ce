package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the TUI key bindings.
type KeyMap struct {
	Quit      key.Binding
	Interrupt key.Binding
	Toggle    key.Binding
	Finalize  key.Binding
	Skip      key.Binding
	NextPanel key.Binding
	PrevPanel key.Binding
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Delete    key.Binding
	Enqueue   key.Binding
	Category  key.Binding
	Export    key.Binding
	Clear     key.Binding
	Save      key.Binding
	Cancel    key.Binding

	// Prompt keys
	Submit key.Binding
	Cycle  key.Binding
	Yes    key.Binding
	No     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q"),
			key.WithHelp("q", "quit"),
		),
		// Interrupt quits from any mode, prompts included.
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start/stop"),
		),
		Finalize: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "end speech"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "skip turn"),
		),
		NextPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		PrevPanel: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "delete"),
		),
		Enqueue: key.NewBinding(
			key.WithKeys("w", "enter"),
			key.WithHelp("w", "wants to speak"),
		),
		Category: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ok"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "category"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Finalize, k.Skip, k.NextPanel, k.Add, k.Delete, k.Enqueue, k.Category, k.Export, k.Clear, k.Quit}
}

// FullHelp groups every binding.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Finalize, k.Skip},
		{k.NextPanel, k.Up, k.Down},
		{k.Add, k.Delete, k.Enqueue, k.Category},
		{k.Export, k.Clear, k.Save, k.Cancel, k.Quit},
	}
}
