package commands

import (
	"context"
	"fmt"

	"patchlink/internal/application"
)

// SymlinksResult contains the result of materializing link manifests
type SymlinksResult struct {
	Created int
	Message string
}

// SymlinksCommand creates the symlinks listed in every link manifest
type SymlinksCommand struct {
	chain Chain
}

// NewSymlinksCommand creates a new SymlinksCommand
func NewSymlinksCommand(chain Chain) *SymlinksCommand {
	return &SymlinksCommand{chain: chain}
}

// Validate checks if the symlinks can be created
func (c *SymlinksCommand) Validate() error {
	if c.chain == nil {
		return &application.ValidationError{
			Field:   "exportDir",
			Message: "no export chain loaded",
		}
	}
	return nil
}

// Execute runs the symlinks command
func (c *SymlinksCommand) Execute(ctx context.Context) (*SymlinksResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n, err := c.chain.CreateSymlinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create symlinks: %w", err)
	}

	return &SymlinksResult{
		Created: n,
		Message: fmt.Sprintf("Created %d symlinks", n),
	}, nil
}
