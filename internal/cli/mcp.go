package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/mcpserver"
	"github.com/akousteon/akousteon/internal/version"
)

func NewMCPCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the saved session to MCP clients over stdio",
		Long:  "Serve read-only MCP tools (session_status, category_totals, export_csv) over stdin/stdout. Logs go to stderr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.OpenReadOnly(deps.Config.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			srv := mcpserver.New(store, deps.Config.StateKey, version.Version, deps.Logger)
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
