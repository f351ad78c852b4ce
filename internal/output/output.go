package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/timer"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) ExportDone(path string, bytes int) {
	f.Success(fmt.Sprintf("Exported %d bytes: %s", bytes, path))
}

func (f *Formatter) Cleared(n int) {
	f.Success(fmt.Sprintf("Cleared %d speeches", n))
}

// Totals is the report printed by the totals command.
type Totals struct {
	// SavedAt is when the session was last written, empty if unknown.
	SavedAt    string          `yaml:"saved_at,omitempty"`
	Speeches   int             `yaml:"speeches"`
	Total      string          `yaml:"total"`
	Categories []CategoryTotal `yaml:"categories"`
}

type CategoryTotal struct {
	Category string `yaml:"category"`
	Total    string `yaml:"total"`
	Seconds  int64  `yaml:"seconds"`
}

// SavedAtLayout formats the last-saved time in reports.
const SavedAtLayout = "2006-01-02 15:04:05"

// NewTotals builds a report from the speeches and category totals of a
// session.
func NewTotals(s *session.Session) Totals {
	speeches := s.Speeches()
	t := Totals{
		Speeches:   len(speeches),
		Total:      timer.ToDisplayHMS(session.SumDurations(speeches)),
		Categories: []CategoryTotal{},
	}
	for _, ct := range s.CategoryTotals() {
		t.Categories = append(t.Categories, CategoryTotal{
			Category: ct.Category,
			Total:    timer.ToDisplayHMS(ct.Total),
			Seconds:  int64(ct.Total.Seconds()),
		})
	}
	return t
}

func (f *Formatter) TotalsText(t Totals) {
	fmt.Fprintf(f.w, "🎙️  %d speeches, %s total\n", t.Speeches, t.Total)
	if t.SavedAt != "" {
		fmt.Fprintf(f.w, "   saved %s\n", t.SavedAt)
	}
	if len(t.Categories) == 0 {
		return
	}
	fmt.Fprintf(f.w, "\n")
	width := 0
	for _, c := range t.Categories {
		width = max(width, len(c.Category))
	}
	for _, c := range t.Categories {
		fmt.Fprintf(f.w, "  %-*s  %s\n", width, c.Category, c.Total)
	}
}

func (f *Formatter) TotalsYAML(t Totals) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode totals: %w", err)
	}
	return enc.Close()
}
