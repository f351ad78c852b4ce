package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/exporter"
	"github.com/akousteon/akousteon/internal/output"
)

func NewExportCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the saved speeches as seconds,\"category\" lines",
		Long:  "Write the saved speeches to path, one seconds,\"category\" line per speech. The default path is a dated file in the export directory. Use - for stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			store, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := loadSession(store, cfg)
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.ExportDir, fmt.Sprintf("speeches-%s.csv", time.Now().Format("20060102-1504")))
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				return s.ExportCSV(cmd.OutOrStdout())
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			r := exporter.Start(ctx, path, s.ExportBytes()).Wait(ctx)
			if r.Err != nil {
				return r.Err
			}
			deps.Logger.Debug("export written", "path", r.Path, "bytes", r.Bytes, "elapsed", r.Elapsed)
			output.NewFormatter(cmd.OutOrStdout()).ExportDone(r.Path, r.Bytes)
			return nil
		},
	}

	return cmd
}
