package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"patchlink/internal/config"
)

var (
	configPath  string
	storagePath string
	exportPath  string
	verbose     bool
	jsonLogs    bool
	progress    bool

	cfg   config.Config
	runID string
)

var rootCmd = &cobra.Command{
	Use:   "patchlink",
	Short: "Export game patches as deduplicated, symlinked directory trees",
	Long: `patchlink exports the files of successive game patches into one directory
per patch. Files identical to the previous patch are not copied: they are
recorded in a link manifest next to the patch directory and materialized as
symlinks into the previous patch, locally or on a remote mirror.

Settings come from $PATCHLINK_STORAGE and $PATCHLINK_EXPORT, then from the
YAML config file, then from flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		loaded, err := config.Load(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("storage") {
			loaded.Storage = config.ExpandHome(storagePath)
		}
		if cmd.Flags().Changed("export") {
			loaded.Export = config.ExpandHome(exportPath)
		}
		cfg = loaded
		runID = uuid.NewString()
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to the config file")
	rootCmd.PersistentFlags().StringVarP(&storagePath, "storage", "s", config.StoragePath(), "path to the patch storage")
	rootCmd.PersistentFlags().StringVarP(&exportPath, "export", "e", config.ExportPath(), "path to the export root")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "log as JSON")
	rootCmd.PersistentFlags().BoolVar(&progress, "progress", false, "show a progress view while working")
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// newLogger builds the stderr logger for one run
func newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel()}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if jsonLogs {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("run", runID)
}
