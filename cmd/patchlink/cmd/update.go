package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"patchlink/internal/application"
	"patchlink/internal/application/commands"
)

var updateSymlinks bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Export every patch directory and write its link manifest",
	Long: `Export every patch directory of the export root from storage.

Each directory must be named after a patch version known to the storage
catalog. Patches are processed newest first; files identical to the previous
patch are listed in <version>.links.txt instead of being copied.

Examples:
  patchlink update
  patchlink update --symlinks --progress`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd, "Updating exports", func(ctx context.Context, logger *slog.Logger) error {
			return withChain(ctx, logger, func(chain *application.Orchestrator) error {
				result, err := commands.NewUpdateCommand(chain, updateSymlinks).Execute(ctx)
				if err != nil {
					return err
				}
				for _, e := range result.Exports {
					logger.Info("patch exported",
						"patch", e.Version.String(),
						"changed", e.Changed,
						"unchanged", e.Unchanged,
						"removed", e.Removed,
						"links", len(e.Links))
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
				return nil
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateSymlinks, "symlinks", false, "create the symlinks after writing the manifests")
}
