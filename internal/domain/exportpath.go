package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStoragePath is returned for storage paths that do not follow the
// projects/<name>/releases/<version>/files/<path> layout.
var ErrInvalidStoragePath = errors.New("invalid storage path")

// storagePrefixDepth is the number of leading segments of a storage path that
// identify the release rather than the file:
// projects/<name>/releases/<version>/files
const storagePrefixDepth = 5

// DescriptionFile is the sidecar name that is also shipped inside archives.
// Loose copies are ignored in favor of the archived ones.
const DescriptionFile = "description.json"

// ToExportPath computes the output-relative path of a storage file.
//
// The release prefix is dropped and the remainder lower-cased, so the same
// logical file maps to the same export path in every patch even when its
// project version changed.
func ToExportPath(storagePath string) (string, error) {
	parts := strings.SplitN(storagePath, "/", storagePrefixDepth+1)
	if len(parts) <= storagePrefixDepth || parts[storagePrefixDepth] == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidStoragePath, storagePath)
	}
	return strings.ToLower(parts[storagePrefixDepth]), nil
}

// IsArchivePath reports whether a storage path names a WAD archive
func IsArchivePath(storagePath string) bool {
	return strings.HasSuffix(strings.ToLower(storagePath), ".wad")
}

// IsDescriptionPath reports whether a storage path names a loose description sidecar
func IsDescriptionPath(storagePath string) bool {
	return strings.HasSuffix(storagePath, "/"+DescriptionFile)
}
