package ports

import (
	"context"

	"patchlink/internal/domain"
)

// SyncRequest describes one patch directory to mirror
type SyncRequest struct {
	OutputDir string
	Version   domain.Version

	// PreviousVersion is zero when the patch has no predecessor
	PreviousVersion domain.Version

	// LinksFile is the sidecar manifest, empty when none was written
	LinksFile string

	// Target is "host:dir"
	Target string
}

// Syncer mirrors an exported patch directory to a remote location
type Syncer interface {
	Sync(ctx context.Context, req SyncRequest) error
}
