package domain

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// LinkManifestSuffix is appended to a patch directory to name its sidecar
const LinkManifestSuffix = ".links.txt"

// LinkManifest is the sorted set of export paths that a patch directory
// shares with its predecessor through symlinks.
type LinkManifest []string

// NewLinkManifest returns a sorted, de-duplicated copy of paths
func NewLinkManifest(paths []string) LinkManifest {
	m := make(LinkManifest, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		m = append(m, p)
	}
	sort.Strings(m)
	return m
}

// LinkManifestPath returns the sidecar path for a patch directory,
// e.g. "export/9.3" -> "export/9.3.links.txt".
func LinkManifestPath(patchDir string) string {
	return filepath.Clean(patchDir) + LinkManifestSuffix
}

// Encode renders the manifest as one path per line with "\n" endings
func (m LinkManifest) Encode() []byte {
	var b strings.Builder
	for _, p := range m {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// WriteTo implements io.WriterTo
func (m LinkManifest) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Encode())
	return int64(n), err
}

// ReadLinkManifest parses a sidecar. Blank lines are ignored and the result
// is normalized (sorted, de-duplicated).
func ReadLinkManifest(r io.Reader) (LinkManifest, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link manifest: %w", err)
	}
	return NewLinkManifest(paths), nil
}
