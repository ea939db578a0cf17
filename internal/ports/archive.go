package ports

import "context"

// ArchiveMember is one logical file inside an archive container.
// Path is empty when it could not be resolved from PathHash.
type ArchiveMember struct {
	Path        string
	PathHash    uint64
	ContentHash uint64
}

// OpenOptions control how member paths are resolved
type OpenOptions struct {
	// Resolve enables path resolution (known hashes, extension guessing)
	Resolve bool

	// UnknownPrefix is the directory for members whose hash is unknown
	UnknownPrefix string
}

// ArchiveOpener opens archive containers from the local filesystem
type ArchiveOpener interface {
	Open(ctx context.Context, fspath string, opts OpenOptions) (Archive, error)
}

// Archive is a read-only view over an archive's table of contents
type Archive interface {
	Members() []ArchiveMember

	// Restrict returns a view limited to the given members
	Restrict(members []ArchiveMember) Archive

	// Extract writes members under dest and returns the number written.
	// Existing files are kept unless overwrite is set.
	Extract(ctx context.Context, dest string, overwrite bool) (int, error)
}

// HashResolver maps archive path hashes back to paths
type HashResolver interface {
	// Resolve returns the known paths; unknown hashes are absent from the map
	Resolve(ctx context.Context, hashes []uint64) (map[uint64]string, error)
}
