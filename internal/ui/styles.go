package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	RunningDotStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	PausedDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ClockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	ClockRunningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGreen)

	SpeakerStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	DurationStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray).
			Strikethrough(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
