package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/akousteon/akousteon/internal/app"
	"github.com/akousteon/akousteon/internal/config"
	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/session"
	"github.com/akousteon/akousteon/internal/version"
)

// exportGrace bounds how long quitting waits for an export still in flight.
const exportGrace = 10 * time.Second

type Dependencies struct {
	// Config is loaded before any command runs unless it is already set.
	Config *config.Config
	Logger *slog.Logger

	configPath string
	dbPath     string
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "akousteon",
		Short: "Track who speaks, and for how long",
		Long:  "A terminal speaking-time tracker for meetings: queue speakers, time their turns, label speeches by category and export the results.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return deps.init(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), deps)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().StringVar(&deps.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/akousteon/config.toml)")
	rootCmd.PersistentFlags().StringVar(&deps.dbPath, "db", "", "state database path")

	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewTotalsCmd(deps))
	rootCmd.AddCommand(NewClearCmd(deps))
	rootCmd.AddCommand(NewMCPCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// init loads the configuration and sets up a logger writing to w.
func (d *Dependencies) init(w io.Writer) error {
	if d.Config == nil {
		cfg, err := config.Load(d.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		d.Config = cfg
	}
	if d.dbPath != "" {
		d.Config.DBPath = d.dbPath
	}
	if d.Logger == nil {
		level, err := config.ParseLevel(d.Config.LogLevel)
		if err != nil {
			return err
		}
		d.Logger = newLogger(level, w)
	}
	return nil
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadSession restores the saved session. A fresh session is seeded with
// the configured categories.
func loadSession(store session.BlobStore, cfg *config.Config) (*session.Session, error) {
	s, err := session.Load(store, cfg.StateKey, nil)
	if err != nil {
		return s, err
	}
	if len(s.Categories()) == 0 {
		s.SetCategories(cfg.Categories)
	}
	return s, nil
}

// restoreSession loads the session for the TUI. When the saved blob cannot
// be read it is copied aside first, because the TUI saves over it, and the
// TUI starts from a seeded empty session. warning then describes the
// failure for display. err is set only when the copy could not be made.
func restoreSession(store session.BlobStore, cfg *config.Config, logger *slog.Logger) (s *session.Session, warning error, err error) {
	s, loadErr := loadSession(store, cfg)
	if loadErr == nil {
		return s, nil, nil
	}
	logger.Error("restore failed, starting empty", "key", cfg.StateKey, "err", loadErr)

	backup, err := session.Preserve(store, cfg.StateKey)
	if err != nil {
		return nil, nil, errors.Join(loadErr, err)
	}
	s.SetCategories(cfg.Categories)
	if backup == "" {
		return s, loadErr, nil
	}
	logger.Warn("unreadable state preserved", "key", cfg.StateKey, "backup", backup)
	return s, fmt.Errorf("%w (previous state kept under %q)", loadErr, backup), nil
}

func runTUI(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config

	// The TUI owns the terminal, so logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := newLogger(level, logFile)

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	s, loadErr, err := restoreSession(store, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("tui starting", "db", cfg.DBPath, "key", cfg.StateKey, "speeches", len(s.Speeches()))

	m := app.New(s, app.Options{
		Store:     store,
		StateKey:  cfg.StateKey,
		ExportDir: cfg.ExportDir,
		Autosave:  cfg.Autosave,
		Logger:    logger,
		LoadErr:   loadErr,
	})

	if ctx == nil {
		ctx = context.Background()
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && final == nil {
		return fmt.Errorf("run tui: %w", err)
	}

	fm, ok := final.(app.Model)
	if !ok {
		return fmt.Errorf("run tui: unexpected model %T", final)
	}

	if task := fm.PendingExport(); task != nil {
		waitCtx, cancel := context.WithTimeout(context.Background(), exportGrace)
		r := task.Wait(waitCtx)
		cancel()
		if r.Err != nil {
			logger.Error("export failed on exit", "path", r.Path, "err", r.Err)
		} else {
			logger.Info("export written", "path", r.Path, "bytes", r.Bytes)
		}
	}

	if err := session.Save(store, cfg.StateKey, fm.Session()); err != nil {
		logger.Error("final save failed", "err", err)
		return err
	}
	logger.Info("tui stopped")
	return nil
}
