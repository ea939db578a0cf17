package application

import "patchlink/internal/domain"

// Re-export domain types for use by adapters
type (
	Version      = domain.Version
	LinkManifest = domain.LinkManifest
)

// ParseVersion parses a patch version directory name
func ParseVersion(s string) (Version, error) {
	return domain.ParseVersion(s)
}

// ExporterState tracks the lifecycle of a PatchExporter
type ExporterState int

const (
	StateUninitialized ExporterState = iota
	StateExported
	StateLinksWritten
	StateLinksMaterialized
)

func (s ExporterState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateExported:
		return "exported"
	case StateLinksWritten:
		return "links-written"
	case StateLinksMaterialized:
		return "links-materialized"
	default:
		return "unknown"
	}
}

// Classification is the outcome of comparing a patch against its predecessor.
// All path lists hold export paths and are sorted.
type Classification struct {
	Changed       []string
	Unchanged     []string
	PreviousFiles []string

	// Removed lists stale entries deleted from the output directory
	Removed []string
}

// ExportResult describes what an export did
type ExportResult struct {
	Version   Version
	Previous  Version
	Changed   int
	Unchanged int
	Removed   int
	Extracted int
	Links     LinkManifest
}

// PatchStatus summarizes one patch directory of an export root
type PatchStatus struct {
	Version     Version
	Previous    Version
	HasManifest bool
	LinkCount   int
	State       ExporterState
}
