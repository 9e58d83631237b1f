package commands

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.trai.ch/avrogen/internal/app"
)

func (c *CLI) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Compile every configured source directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			asJSON, _ := cmd.Flags().GetBool("json")

			summary, err := c.app.Run(cmd.Context(), app.RunOptions{
				ConfigPath: configPath(cmd),
				Force:      force,
			})
			if summary != nil {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(summary); encErr != nil {
						return encErr
					}
				} else {
					printSummary(cmd.OutOrStdout(), summary)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Recompile every directory regardless of the cache")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")

	return cmd
}
