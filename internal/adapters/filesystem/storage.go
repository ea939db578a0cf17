package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"patchlink/internal/ports"
)

var _ ports.Storage = (*Storage)(nil)

// Storage maps storage paths onto a local release storage directory
type Storage struct {
	root string
}

// NewStorage creates a storage rooted at path
func NewStorage(path string) *Storage {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return &Storage{root: path}
}

// Root returns the storage directory
func (s *Storage) Root() string {
	return s.root
}

// FSPath returns the local path of a slash-separated storage path
func (s *Storage) FSPath(storagePath string) string {
	return filepath.Join(s.root, filepath.FromSlash(storagePath))
}

// releaseDir returns the storage path of a project release's files
func releaseDir(project, version string) string {
	return "projects/" + project + "/releases/" + version + "/files"
}
