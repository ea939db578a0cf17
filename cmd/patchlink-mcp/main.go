package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"patchlink/internal/adapters/filesystem"
	mcpadapter "patchlink/internal/adapters/mcp"
	"patchlink/internal/adapters/process"
	"patchlink/internal/adapters/rsync"
	"patchlink/internal/adapters/sqlite"
	"patchlink/internal/adapters/wad"
	"patchlink/internal/application"
	"patchlink/internal/application/commands"
	"patchlink/internal/config"
	"patchlink/internal/ports"
)

func main() {
	configFlag := flag.String("config", config.Path(), "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configFlag, false)
	if err != nil {
		log.Fatalf("patchlink-mcp: %v", err)
	}

	// stdout carries the protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mcpServer := server.NewMCPServer(
		"patchlink-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, cfg.Export)
	hashes, closeHashes, err := openHashes(cfg)
	if err != nil {
		log.Fatalf("patchlink-mcp: %v", err)
	}
	defer closeHashes()
	mcpadapter.RegisterWriteTools(mcpServer, chainLoader(cfg, hashes, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Printf("patchlink-mcp: %v", err)
	}
}

// openHashes opens the hash database when it exists
func openHashes(cfg config.Config) (ports.HashResolver, func() error, error) {
	dbPath := cfg.HashesDB
	if dbPath == "" {
		dbPath = sqlite.DefaultPath()
	}
	if _, err := os.Stat(dbPath); err != nil {
		return wad.NoHashes{}, func() error { return nil }, nil
	}

	store := sqlite.NewHashStore()
	if err := store.Open(dbPath); err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func chainLoader(cfg config.Config, hashes ports.HashResolver, logger *slog.Logger) mcpadapter.ChainLoader {
	return func(ctx context.Context) (commands.Chain, error) {
		storage := filesystem.NewStorage(cfg.Storage)
		runner := process.NewRunner(process.WithLogger(logger))
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
			return nil, err
		}
		return chain, nil
	}
}
