package commands

import (
	"context"
	"fmt"

	"patchlink/internal/application"
)

// StatusResult lists the patches of an export directory
type StatusResult struct {
	Patches []application.PatchStatus
	Message string
}

// StatusCommand reports the patches of an export directory
type StatusCommand struct {
	chain Chain
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand(chain Chain) *StatusCommand {
	return &StatusCommand{chain: chain}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context) (*StatusResult, error) {
	if c.chain == nil {
		return nil, &application.ValidationError{Field: "exportDir", Message: "no export chain loaded"}
	}

	patches, err := c.chain.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	missing := 0
	for _, p := range patches {
		if !p.Previous.IsZero() && !p.HasManifest {
			missing++
		}
	}

	msg := fmt.Sprintf("%d patches", len(patches))
	if missing > 0 {
		msg += fmt.Sprintf(", %d without link manifest", missing)
	}
	return &StatusResult{Patches: patches, Message: msg}, nil
}
