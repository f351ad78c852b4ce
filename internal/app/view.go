package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/timer"
	"github.com/akousteon/akousteon/internal/ui"
)

// chromeLines is the number of rows outside the panels: header, status,
// two dividers, prompt, error bar and footer.
const chromeLines = 7

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 10
	}
	return max(3, m.height-chromeLines)
}

func (m Model) panelWidth() int {
	if m.width == 0 {
		return 20
	}
	return max(12, (m.width-int(panelCount-1))/int(panelCount))
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if p := m.renderPrompt(); p != "" {
		sections = append(sections, p)
	}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("AKOUSTEON")

	ts := m.session.Timespan()
	var dot, clock string
	if ts.IsRunning() {
		dot = ui.RunningDotStyle.Render("●")
		clock = ui.ClockRunningStyle.Render(timer.ToDisplay(ts.ElapsedNow()))
	} else {
		dot = ui.PausedDotStyle.Render("○")
		clock = ui.ClockStyle.Render(timer.ToDisplay(ts.ElapsedNow()))
	}

	total := ui.DimStyle.Render("  total " + timer.ToDisplayHMS(session.SumDurations(m.visibleSpeeches())))

	var saved string
	if !m.lastSaved.IsZero() {
		saved = ui.DimStyle.Render("  saved " + m.lastSaved.Format("15:04:05"))
	}

	return title + "  " + dot + " " + clock + total + saved
}

func (m Model) renderStatusBar() string {
	r := m.session.Roster()

	speaking := ui.DimStyle.Render("nobody")
	if sp, idx := m.session.Active(); idx != session.NoSpeaker {
		speaking = ui.SpeakerStyle.Render(sp.Name)
	}

	next := ui.DimStyle.Render("nobody")
	if sp := r.CurrentSpeaker(); !sp.IsZero() {
		next = ui.SpeakerStyle.Render(sp.Name)
	}

	line := ui.DimStyle.Render("Speaking: ") + speaking + ui.DimStyle.Render("  Next: ") + next
	if m.statusText != "" {
		line += "  " + ui.StatusStyle.Render(m.statusText)
	}
	return line
}

func (m Model) renderMainContent() string {
	w := m.panelWidth()
	h := m.contentHeight()

	panels := [][]string{
		m.renderSpeakersPanel(w, h),
		m.renderQueuePanel(w, h),
		m.renderSpeechesPanel(w, h),
		m.renderCategoriesPanel(w, h),
	}

	divider := ui.DividerStyle.Render("│")
	rows := make([]string, 0, h)
	for i := 0; i < h; i++ {
		cells := make([]string, len(panels))
		for p, lines := range panels {
			cells[p] = lines[i]
		}
		rows = append(rows, strings.Join(cells, divider))
	}
	return strings.Join(rows, "\n")
}

func (m Model) panelHeader(p PanelFocus, title string, n int) string {
	label := fmt.Sprintf("%s (%d)", title, n)
	if m.focusedPanel == p {
		return ui.PanelTitleActiveStyle.Render(label)
	}
	return ui.PanelTitleStyle.Render(label)
}

// itemLine renders one panel row, marking the selection in the focused
// panel.
func (m Model) itemLine(p PanelFocus, row int, text string) string {
	if m.focusedPanel == p && m.selected[p] == row {
		return ui.SelectedStyle.Render("> " + text)
	}
	return "  " + text
}

func (m Model) renderSpeakersPanel(width, height int) []string {
	r := m.session.Roster()
	lines := []string{m.panelHeader(FocusSpeakers, "SPEAKERS", r.Len())}
	if r.Len() == 0 {
		lines = append(lines, ui.DimStyle.Render("  a to add"))
	}
	_, active := m.session.Active()
	for i, sp := range r.Speakers() {
		text := sp.Name
		if sp.Category != "" {
			text += " " + ui.CategoryStyle.Render("["+sp.Category+"]")
		}
		if i == active {
			text += " " + ui.RunningDotStyle.Render("●")
		}
		lines = append(lines, truncateToWidth(m.itemLine(FocusSpeakers, i, text), width))
	}
	return fitPanel(lines, width, height)
}

func (m Model) renderQueuePanel(width, height int) []string {
	r := m.session.Roster()
	queue := r.Queue()
	lines := []string{m.panelHeader(FocusQueue, "QUEUE", len(queue))}
	if len(queue) == 0 {
		lines = append(lines, ui.DimStyle.Render("  empty"))
	}
	for pos, idx := range queue {
		text := fmt.Sprintf("%d. %s", pos+1, r.Speaker(idx).Name)
		lines = append(lines, truncateToWidth(m.itemLine(FocusQueue, pos, text), width))
	}
	return fitPanel(lines, width, height)
}

func (m Model) renderSpeechesPanel(width, height int) []string {
	speeches, pending := m.session.Marked()
	lines := []string{m.panelHeader(FocusSpeeches, "SPEECHES", len(speeches))}
	if len(speeches) == 0 {
		lines = append(lines, ui.DimStyle.Render("  none yet"))
	}
	// Newest first.
	for row := 0; row < len(speeches); row++ {
		idx := len(speeches) - 1 - row
		sp := speeches[idx]
		text := ui.DurationStyle.Render(timer.ToDisplay(sp.Duration))
		if sp.Category != "" {
			text += " " + ui.CategoryStyle.Render(sp.Category)
		}
		if slices.Contains(pending, idx) {
			text = ui.PendingStyle.Render(timer.ToDisplay(sp.Duration) + " " + sp.Category)
		}
		lines = append(lines, truncateToWidth(m.itemLine(FocusSpeeches, row, text), width))
	}
	return fitPanel(lines, width, height)
}

func (m Model) renderCategoriesPanel(width, height int) []string {
	totals := session.SumByCategory(m.session.Categories(), m.visibleSpeeches())
	lines := []string{m.panelHeader(FocusCategories, "CATEGORIES", len(totals))}
	if len(totals) == 0 {
		lines = append(lines, ui.DimStyle.Render("  a to add"))
	}
	for i, ct := range totals {
		text := ct.Category + " " + ui.DurationStyle.Render(timer.ToDisplayHMS(ct.Total))
		lines = append(lines, truncateToWidth(m.itemLine(FocusCategories, i, text), width))
	}
	return fitPanel(lines, width, height)
}

func (m Model) renderPrompt() string {
	switch m.mode {
	case ModeAddSpeaker:
		cat := m.speakerCategoryLabel()
		if cat == "" {
			cat = "none"
		}
		return ui.PromptStyle.Render("Speaker: ") + m.input.View() +
			ui.DimStyle.Render("  category: ") + ui.CategoryStyle.Render(cat) +
			ui.DimStyle.Render(" (tab)")
	case ModeAddCategory:
		return ui.PromptStyle.Render("Category: ") + m.input.View()
	case ModeExportPath:
		return ui.PromptStyle.Render("Export to: ") + m.input.View()
	case ModeConfirmClear:
		return ui.PromptStyle.Render(fmt.Sprintf("Clear %d speeches? ", len(m.visibleSpeeches()))) +
			ui.DimStyle.Render("[y/N]")
	}
	return ""
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, ui.FooterKeyStyle.Render(h.Key)+ui.FooterDescStyle.Render(" "+h.Desc))
	}
	if m.export != nil {
		parts = append(parts, ui.FooterKeyStyle.Render("esc")+ui.FooterDescStyle.Render(" cancel export"))
	}
	return truncateToWidth(strings.Join(parts, "  "), m.width)
}

// visibleSpeeches lists the speeches that will survive the pending removals.
// Rendering must not apply the removals itself.
func (m Model) visibleSpeeches() []session.Speech {
	speeches, pending := m.session.Marked()
	kept := speeches[:0]
	for i, sp := range speeches {
		if !slices.Contains(pending, i) {
			kept = append(kept, sp)
		}
	}
	return kept
}

// Helpers

// fitPanel pads or cuts lines to exactly height rows of width columns.
func fitPanel(lines []string, width, height int) []string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return lines
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	// MaxWidth cuts on cell width and keeps ANSI sequences intact.
	return lipgloss.NewStyle().MaxWidth(width-1).Render(s) + "…"
}
