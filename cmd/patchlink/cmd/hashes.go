package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchlink/internal/adapters/sqlite"
	"patchlink/internal/application/commands"
)

var hashesCmd = &cobra.Command{
	Use:   "hashes",
	Short: "Manage the WAD path hash database",
	Long: `Manage the database mapping WAD member path hashes back to paths.

The database location is the "hashes_db" setting, by default
$XDG_DATA_HOME/patchlink/hashes.db.`,
}

var hashesImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import hash lists",
	Long: `Import hash lists into the database. Each line holds a 16 digit hex hash
and the path it stands for, separated by a space.

Examples:
  patchlink hashes import hashes.game.txt hashes.lcu.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sqlite.NewHashStore()
		if err := store.Open(hashesPath()); err != nil {
			return err
		}
		defer store.Close()

		result, err := commands.NewImportHashesCommand(store, args).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

var hashesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of known hashes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sqlite.NewHashStore()
		if err := store.Open(hashesPath()); err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d hashes in %s\n", n, store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashesCmd)
	hashesCmd.AddCommand(hashesImportCmd)
	hashesCmd.AddCommand(hashesCountCmd)
}
