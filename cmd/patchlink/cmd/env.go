package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"patchlink/internal/adapters/filesystem"
	"patchlink/internal/adapters/process"
	"patchlink/internal/adapters/rsync"
	"patchlink/internal/adapters/sqlite"
	"patchlink/internal/adapters/tui"
	"patchlink/internal/adapters/wad"
	"patchlink/internal/application"
	"patchlink/internal/ports"
)

// hashesPath returns the configured hash database location
func hashesPath() string {
	if cfg.HashesDB != "" {
		return cfg.HashesDB
	}
	return sqlite.DefaultPath()
}

// openHashes opens the hash database if it exists. Without one, WAD members
// keep their unknown names.
func openHashes() (ports.HashResolver, io.Closer, error) {
	path := hashesPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return wad.NoHashes{}, io.NopCloser(nil), nil
	}

	store := sqlite.NewHashStore()
	if err := store.Open(path); err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// withChain loads the export chain and hands it to fn
func withChain(ctx context.Context, logger *slog.Logger, fn func(*application.Orchestrator) error) error {
	hashes, closer, err := openHashes()
	if err != nil {
		return err
	}
	defer closer.Close()

	var out io.Writer = os.Stderr
	if progress {
		out = nil
	}
	runner := process.NewRunner(process.WithOutput(out), process.WithLogger(logger))

	storage := filesystem.NewStorage(cfg.Storage)
	deps := application.Deps{
		Storage:   storage,
		Archives:  wad.NewOpener(hashes, logger),
		Syncer:    rsync.NewSyncer(runner, logger),
		Logger:    logger,
		Solutions: cfg.Solutions,
		Overwrite: cfg.Overwrite,
	}

	chain, err := application.NewOrchestrator(ctx, cfg.Export, filesystem.NewCatalog(storage), deps)
	if err != nil {
		return err
	}
	return fn(chain)
}

// runTask runs task either directly with the stderr logger or behind the
// progress view
func runTask(cmd *cobra.Command, title string, task tui.Task) error {
	if progress {
		return tui.Run(cmd.Context(), title, logLevel(), func(ctx context.Context, logger *slog.Logger) error {
			return task(ctx, logger.With("run", runID))
		})
	}
	return task(cmd.Context(), newLogger(cmd.ErrOrStderr()))
}
