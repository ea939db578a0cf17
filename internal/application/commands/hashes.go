package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"patchlink/internal/application"
)

// HashImporter stores path hash lists
type HashImporter interface {
	Import(ctx context.Context, r io.Reader) (int, error)
}

// ImportHashesResult contains the result of importing hash lists
type ImportHashesResult struct {
	Imported int
	Message  string
}

// ImportHashesCommand loads "<hex-hash> <path>" lists into the hash store
type ImportHashesCommand struct {
	store HashImporter
	Files []string
}

// NewImportHashesCommand creates a new ImportHashesCommand
func NewImportHashesCommand(store HashImporter, files []string) *ImportHashesCommand {
	return &ImportHashesCommand{
		store: store,
		Files: files,
	}
}

// Validate checks if there is something to import
func (c *ImportHashesCommand) Validate() error {
	if len(c.Files) == 0 {
		return &application.ValidationError{
			Field:   "files",
			Message: "at least one hash list is required",
		}
	}
	return nil
}

// Execute runs the import command
func (c *ImportHashesCommand) Execute(ctx context.Context) (*ImportHashesResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	total := 0
	for _, path := range c.Files {
		n, err := c.importFile(ctx, path)
		if err != nil {
			return nil, err
		}
		total += n
	}

	return &ImportHashesResult{
		Imported: total,
		Message:  fmt.Sprintf("Imported %d hashes from %d files", total, len(c.Files)),
	}, nil
}

func (c *ImportHashesCommand) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open hash list: %w", err)
	}
	defer f.Close()

	n, err := c.store.Import(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return n, nil
}
