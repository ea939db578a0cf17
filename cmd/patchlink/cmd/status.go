package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchlink/internal/adapters/tui/views"
	"patchlink/internal/application"
	"patchlink/internal/application/commands"
)

var statusScan bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the patch directories of the export root",
	Long: `Show every patch directory of the export root with its predecessor and the
size of its link manifest.

With --scan the storage catalog is not read: directories are paired with the
next older directory on disk.

Examples:
  patchlink status
  patchlink status --scan`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusScan {
			statuses, err := application.ScanExports(cfg.Export)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderStatus(statuses))
			return nil
		}

		logger := newLogger(cmd.ErrOrStderr())
		return withChain(cmd.Context(), logger, func(chain *application.Orchestrator) error {
			result, err := commands.NewStatusCommand(chain).Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderStatus(result.Patches))
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusScan, "scan", false, "scan the export root without reading the storage catalog")
}
