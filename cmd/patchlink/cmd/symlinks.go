package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"patchlink/internal/application"
	"patchlink/internal/application/commands"
)

var symlinksCmd = &cobra.Command{
	Use:   "symlinks",
	Short: "Create the symlinks listed in the link manifests",
	Long: `Create, in every patch directory, the symlinks listed in its link manifest.
Each link points to the same path in the previous patch directory.

Examples:
  patchlink symlinks`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd, "Creating symlinks", func(ctx context.Context, logger *slog.Logger) error {
			return withChain(ctx, logger, func(chain *application.Orchestrator) error {
				result, err := commands.NewSymlinksCommand(chain).Execute(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
				return nil
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(symlinksCmd)
}
