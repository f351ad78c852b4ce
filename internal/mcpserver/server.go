// Package mcpserver exposes the persisted session to MCP clients over stdio.
//
// Every tool reads the last saved state from the blob store. Nothing here
// mutates the store or reaches a running TUI.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/output"
	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/timer"
)

// entryStore is implemented by stores that record when a blob was written.
type entryStore interface {
	Entry(key string) (*db.Entry, error)
}

// Server answers tool calls from a blob store.
type Server struct {
	store   session.BlobStore
	key     string
	version string
	logger  *slog.Logger
}

// New creates a Server reading the session saved under key.
func New(store session.BlobStore, key, version string, logger *slog.Logger) *Server {
	if key == "" {
		key = session.DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, key: key, version: version, logger: logger}
}

// MCPServer builds the mcp-go server with every tool registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("akousteon", s.version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Summarize the saved meeting: timer, active speaker, queue and speech count."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleStatus)

	srv.AddTool(mcp.NewTool("category_totals",
		mcp.WithDescription("Total speaking time per category."),
		mcp.WithString("format",
			mcp.Description("text or yaml"),
			mcp.Enum("text", "yaml"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleTotals)

	srv.AddTool(mcp.NewTool("export_csv",
		mcp.WithDescription("The speech list as export lines: seconds,\"category\"."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleExport)

	return srv
}

// Serve speaks MCP on in and out until ctx ends or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.MCPServer())
	s.logger.Info("mcp server listening on stdio", "key", s.key)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func (s *Server) load() (*session.Session, error) {
	sess, err := session.Load(s.store, s.key, nil)
	if err != nil {
		s.logger.Warn("load session", "key", s.key, "err", err)
		return nil, err
	}
	return sess, nil
}

// savedAt reports when the session was last written, or "" when the store
// does not know.
func (s *Server) savedAt() string {
	es, ok := s.store.(entryStore)
	if !ok {
		return ""
	}
	e, err := es.Entry(s.key)
	if err != nil {
		s.logger.Warn("read entry", "key", s.key, "err", err)
		return ""
	}
	if e == nil {
		return ""
	}
	return e.UpdatedAt.Format(output.SavedAtLayout)
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := Status(sess)
	if at := s.savedAt(); at != "" {
		text += "saved at: " + at + "\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	f := output.NewFormatter(&buf)
	totals := output.NewTotals(sess)
	totals.SavedAt = s.savedAt()
	switch format := request.GetString("format", "text"); format {
	case "text":
		f.TotalsText(totals)
	case "yaml":
		if err := f.TotalsYAML(totals); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(sess.ExportBytes())), nil
}

// Status renders a plain-text overview of sess.
func Status(sess *session.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "timer: %s (stopped)\n", timer.ToDisplay(sess.Timespan().ElapsedNow()))

	active := "nobody"
	if sp, idx := sess.Active(); idx != session.NoSpeaker {
		active = sp.Name
	}
	fmt.Fprintf(&b, "speaking: %s\n", active)

	r := sess.Roster()
	names := make([]string, 0, len(r.Queue()))
	for _, idx := range r.Queue() {
		names = append(names, r.Speaker(idx).Name)
	}
	if len(names) == 0 {
		fmt.Fprintf(&b, "queue: empty\n")
	} else {
		fmt.Fprintf(&b, "queue: %s\n", strings.Join(names, ", "))
	}

	speeches := sess.Speeches()
	fmt.Fprintf(&b, "speakers: %d\n", r.Len())
	fmt.Fprintf(&b, "speeches: %d (%s)\n", len(speeches), timer.ToDisplayHMS(session.SumDurations(speeches)))
	return b.String()
}
