package session

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportLine renders one speech as `<seconds>,"<category>"`. Double quotes
// inside the category are doubled.
func (sp Speech) ExportLine() string {
	secs := int64(sp.Duration / time.Second)
	return fmt.Sprintf("%d,\"%s\"", secs, strings.ReplaceAll(sp.Category, `"`, `""`))
}

// ExportCSV writes every speech, oldest first, one line each. There is no
// header row.
func (s *Session) ExportCSV(w io.Writer) error {
	for _, sp := range s.Speeches() {
		if _, err := io.WriteString(w, sp.ExportLine()+"\n"); err != nil {
			return fmt.Errorf("write speech: %w", err)
		}
	}
	return nil
}

// ExportBytes returns the ExportCSV output as a snapshot.
func (s *Session) ExportBytes() []byte {
	var buf bytes.Buffer
	_ = s.ExportCSV(&buf) // bytes.Buffer writes do not fail
	return buf.Bytes()
}
