package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/output"
)

func NewTotalsCmd(deps *Dependencies) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show speaking time per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown output format %q (want text or yaml)", format)
			}

			store, err := db.Open(deps.Config.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := loadSession(store, deps.Config)
			if err != nil {
				return err
			}

			f := output.NewFormatter(cmd.OutOrStdout())
			totals := output.NewTotals(s)
			totals.SavedAt = savedAt(store, deps.Config.StateKey)
			if format == "yaml" {
				return f.TotalsYAML(totals)
			}
			f.TotalsText(totals)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or yaml")

	return cmd
}

// savedAt reports when key was last written, or "" when it never was.
func savedAt(store *db.Store, key string) string {
	e, err := store.Entry(key)
	if err != nil || e == nil {
		return ""
	}
	return e.UpdatedAt.Format(output.SavedAtLayout)
}
