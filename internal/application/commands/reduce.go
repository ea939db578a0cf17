package commands

import (
	"context"
	"fmt"

	"patchlink/internal/domain"
)

// ReduceResult contains the reduced link manifest
type ReduceResult struct {
	Links   domain.LinkManifest
	Message string
}

// ReduceCommand reduces a set of unchanged paths against the previous
// patch's paths and the changed (excluded) paths
type ReduceCommand struct {
	Unchanged []string
	Previous  []string
	Excluded  []string
}

// NewReduceCommand creates a new ReduceCommand
func NewReduceCommand(unchanged, previous, excluded []string) *ReduceCommand {
	return &ReduceCommand{
		Unchanged: unchanged,
		Previous:  previous,
		Excluded:  excluded,
	}
}

// Execute runs the reduce command
func (c *ReduceCommand) Execute(ctx context.Context) (*ReduceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	links := domain.NewLinkManifest(domain.ReducePaths(c.Unchanged, c.Previous, c.Excluded))
	return &ReduceResult{
		Links:   links,
		Message: fmt.Sprintf("Reduced %d paths to %d entries", len(c.Unchanged), len(links)),
	}, nil
}
