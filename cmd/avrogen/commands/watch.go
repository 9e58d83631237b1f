package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/avrogen/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Recompile whenever a source or import changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			return c.app.Watch(cmd.Context(), app.WatchOptions{ConfigPath: configPath(cmd)},
				func(summary *app.Summary, err error) {
					if summary != nil {
						printSummary(out, summary)
					}
					if err != nil {
						printError(errOut, err)
					}
				})
		},
	}
}
