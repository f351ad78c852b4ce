package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akousteon/akousteon/internal/db"
	"github.com/akousteon/akousteon/internal/output"
	"github.com/akousteon/akousteon/internal/session"
)

func NewClearCmd(deps *Dependencies) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved speech and reset the timer",
		Long:  "Delete every saved speech and reset the timer. Speakers, the queue and categories are kept.",
		Args:  cobra.NoArgs,
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

			f := output.NewFormatter(cmd.OutOrStdout())
			n := len(s.Speeches())
			if n == 0 && s.Timespan().Elapsed() == 0 {
				f.Warning("Nothing to clear")
				return nil
			}
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Clear %d speeches? [y/N] ", n)
				if !confirmed(cmd) {
					f.Info("Nothing cleared")
					return nil
				}
			}

			s.Apply(session.ClearSpeeches{})
			if err := session.Save(store, cfg.StateKey, s); err != nil {
				return err
			}
			deps.Logger.Info("speeches cleared", "key", cfg.StateKey, "count", n)
			f.Cleared(n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// confirmed reads one answer line; only y or yes counts.
func confirmed(cmd *cobra.Command) bool {
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
