package ports

import (
	"context"

	"patchlink/internal/domain"
)

// PatchCatalog lists the patches known to the release storage
type PatchCatalog interface {
	// Patches returns every known patch, newest first
	Patches(ctx context.Context) ([]Patch, error)
}

// Patch is one versioned release snapshot
type Patch interface {
	Version() domain.Version
	Solutions(ctx context.Context) ([]SolutionView, error)
}

// SolutionView groups the projects shipped together in a patch
type SolutionView interface {
	Name() string

	// Download makes every release file of the solution available locally
	Download(ctx context.Context) error

	Projects(ctx context.Context) ([]ProjectView, error)
}

// ProjectView is one project release within a solution
type ProjectView interface {
	Name() string

	// FilePaths returns the storage paths of every file in the release
	FilePaths(ctx context.Context) ([]string, error)
}

// Storage maps storage paths to local filesystem paths
type Storage interface {
	FSPath(storagePath string) string
}
