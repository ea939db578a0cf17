package commands

import (
	"context"
	"fmt"

	"patchlink/internal/application"
)

// UpdateResult contains the result of updating an export directory
type UpdateResult struct {
	Exports []*application.ExportResult
	Links   int
	Message string
}

// UpdateCommand exports every patch of the chain and writes the link
// manifests, optionally materializing the links right after
type UpdateCommand struct {
	chain    Chain
	Symlinks bool
}

// NewUpdateCommand creates a new UpdateCommand
func NewUpdateCommand(chain Chain, symlinks bool) *UpdateCommand {
	return &UpdateCommand{
		chain:    chain,
		Symlinks: symlinks,
	}
}

// Validate checks if the update can run
func (c *UpdateCommand) Validate() error {
	if c.chain == nil {
		return &application.ValidationError{
			Field:   "exportDir",
			Message: "no export chain loaded",
		}
	}
	return nil
}

// Execute runs the update command
func (c *UpdateCommand) Execute(ctx context.Context) (*UpdateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	exports, err := c.chain.Update(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update exports: %w", err)
	}

	res := &UpdateResult{Exports: exports}
	var changed, removed int
	for _, e := range exports {
		changed += e.Changed
		removed += e.Removed
	}

	if c.Symlinks {
		n, err := c.chain.CreateSymlinks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create symlinks: %w", err)
		}
		res.Links = n
	}

	res.Message = fmt.Sprintf("Updated %d patches: %d changed files, %d removed", len(exports), changed, removed)
	if c.Symlinks {
		res.Message += fmt.Sprintf(", %d links created", res.Links)
	}
	return res, nil
}
