// Package config loads akousteon settings from TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/akousteon/akousteon/internal/db"
)

// DefaultAutosave is how often the TUI saves the session while running.
const DefaultAutosave = 30 * time.Second

type Config struct {
	DBPath     string
	ExportDir  string
	StateKey   string
	Categories []string // seed for sessions that have never been saved
	LogLevel   string
	LogFile    string
	Autosave   time.Duration
}

type fileConfig struct {
	DBPath          string   `toml:"db_path"`
	ExportDir       string   `toml:"export_dir"`
	StateKey        string   `toml:"state_key"`
	Categories      []string `toml:"categories"`
	LogLevel        string   `toml:"log_level"`
	LogFile         string   `toml:"log_file"`
	AutosaveSeconds *int     `toml:"autosave_seconds"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DBPath:    db.DefaultDBPath(),
		ExportDir: defaultExportDir(),
		StateKey:  "app",
		LogLevel:  "info",
		LogFile:   filepath.Join(filepath.Dir(db.DefaultDBPath()), "akousteon.log"),
		Autosave:  DefaultAutosave,
	}
}

// Load reads the config file at path, or the default location when path is
// empty, then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = configFilePath()
	}
	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				return finish(cfg)
			}
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		apply(cfg, fc)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func apply(cfg *Config, fc fileConfig) {
	if fc.DBPath != "" {
		cfg.DBPath = expandTilde(fc.DBPath)
	}
	if fc.ExportDir != "" {
		cfg.ExportDir = expandTilde(fc.ExportDir)
	}
	if fc.StateKey != "" {
		cfg.StateKey = fc.StateKey
	}
	if len(fc.Categories) > 0 {
		cfg.Categories = fc.Categories
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		cfg.LogFile = expandTilde(fc.LogFile)
	}
	if fc.AutosaveSeconds != nil {
		cfg.Autosave = time.Duration(*fc.AutosaveSeconds) * time.Second
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AKOUSTEON_DB_PATH"); v != "" {
		cfg.DBPath = expandTilde(v)
	}
	if v := os.Getenv("AKOUSTEON_EXPORT_DIR"); v != "" {
		cfg.ExportDir = expandTilde(v)
	}
	if v := os.Getenv("AKOUSTEON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AKOUSTEON_LOG_FILE"); v != "" {
		cfg.LogFile = expandTilde(v)
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Autosave < 0 {
		errs = append(errs, fmt.Errorf("autosave_seconds must not be negative, got %v", c.Autosave))
	}
	if c.StateKey == "" {
		errs = append(errs, errors.New("state_key must not be empty"))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", s)
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "akousteon")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "akousteon")
	} else {
		return ""
	}
	return filepath.Join(configDir, "config.toml")
}

func defaultExportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
