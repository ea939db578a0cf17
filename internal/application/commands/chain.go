package commands

import (
	"context"

	"patchlink/internal/application"
)

// Chain is the export chain driven by the commands.
// *application.Orchestrator implements it.
type Chain interface {
	Update(ctx context.Context) ([]*application.ExportResult, error)
	CreateSymlinks(ctx context.Context) (int, error)
	Upload(ctx context.Context, target string) error
	Status() ([]application.PatchStatus, error)
}

var _ Chain = (*application.Orchestrator)(nil)
