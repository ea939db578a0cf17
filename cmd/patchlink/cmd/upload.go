package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"patchlink/internal/application"
	"patchlink/internal/application/commands"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [host:dir]",
	Short: "Mirror the patch directories to a remote host",
	Long: `Mirror every patch directory to host:dir with rsync, oldest first.

Linked files are not transferred; the link manifest is copied next to the
remote patch directory and replayed there over ssh. The target defaults to
the "remote" setting of the config file.

Examples:
  patchlink upload cdn.example.com:/var/www/patches`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := cfg.Remote
		if len(args) == 1 {
			target = args[0]
		}

		upload := commands.NewUploadCommand(nil, target)
		if err := upload.Validate(); err != nil {
			return err
		}

		return runTask(cmd, "Uploading to "+target, func(ctx context.Context, logger *slog.Logger) error {
			return withChain(ctx, logger, func(chain *application.Orchestrator) error {
				result, err := commands.NewUploadCommand(chain, target).Execute(ctx)
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
	rootCmd.AddCommand(uploadCmd)
}
