package application

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	ErrNoVersionDirs  = errors.New("no version directories found")
	ErrUnknownVersion = errors.New("unknown version")
	ErrDuplicateFiles = errors.New("files both changed and unchanged")
	ErrLinkConflict   = errors.New("link conflict")
	ErrInvalidTarget  = errors.New("invalid target")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MissingVersionsError lists export directories with no matching patch
type MissingVersionsError struct {
	Versions []string
}

func (e *MissingVersionsError) Error() string {
	return fmt.Sprintf("patch versions not found: %s", strings.Join(e.Versions, ", "))
}

func (e *MissingVersionsError) Is(target error) bool {
	return target == ErrUnknownVersion
}

// DuplicateFilesError lists export paths classified both changed and unchanged
type DuplicateFilesError struct {
	Version string
	Paths   []string
}

func (e *DuplicateFilesError) Error() string {
	return fmt.Sprintf("patch %s: %d files both changed and unchanged: %s",
		e.Version, len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *DuplicateFilesError) Is(target error) bool {
	return target == ErrDuplicateFiles
}

// LinkConflictError reports a link destination occupied by real content
type LinkConflictError struct {
	Path string
}

func (e *LinkConflictError) Error() string {
	return fmt.Sprintf("cannot create link %s: destination exists and is not a link", e.Path)
}

func (e *LinkConflictError) Is(target error) bool {
	return target == ErrLinkConflict
}
