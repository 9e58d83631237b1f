package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/avrogen/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Reset the type registry and remove the build cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				ConfigPath: configPath(cmd),
				All:        all,
			})
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Also remove the generated sources")

	return cmd
}
