package ports

import "context"

// ProcessRunner runs external commands.
// Implementations terminate the child when ctx is cancelled.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
