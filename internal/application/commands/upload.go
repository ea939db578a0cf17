package commands

import (
	"context"
	"fmt"

	"patchlink/internal/application"
)

// UploadResult contains the result of mirroring the export directory
type UploadResult struct {
	Target  string
	Message string
}

// UploadCommand mirrors every patch of the chain to a remote host
type UploadCommand struct {
	chain  Chain
	Target string
}

// NewUploadCommand creates a new UploadCommand
func NewUploadCommand(chain Chain, target string) *UploadCommand {
	return &UploadCommand{
		chain:  chain,
		Target: target,
	}
}

// Validate checks if the upload target is usable
func (c *UploadCommand) Validate() error {
	return application.ValidateTarget(c.Target)
}

// Execute runs the upload command
func (c *UploadCommand) Execute(ctx context.Context) (*UploadResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := c.chain.Upload(ctx, c.Target); err != nil {
		return nil, fmt.Errorf("failed to upload: %w", err)
	}

	return &UploadResult{
		Target:  c.Target,
		Message: fmt.Sprintf("Uploaded to %s", c.Target),
	}, nil
}
