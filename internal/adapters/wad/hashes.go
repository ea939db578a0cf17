package wad

import (
	"context"
	"strings"

	"github.com/cespare/xxhash/v2"

	"patchlink/internal/ports"
)

// HashPath returns the WAD path hash of path (xxh64 of the lower-cased path)
func HashPath(path string) uint64 {
	return xxhash.Sum64String(strings.ToLower(path))
}

var (
	_ ports.HashResolver = MapResolver(nil)
	_ ports.HashResolver = NoHashes{}
)

// MapResolver resolves hashes from an in-memory table
type MapResolver map[uint64]string

// NewMapResolver builds a resolver knowing paths
func NewMapResolver(paths ...string) MapResolver {
	m := make(MapResolver, len(paths))
	for _, p := range paths {
		m[HashPath(p)] = strings.ToLower(p)
	}
	return m
}

func (m MapResolver) Resolve(ctx context.Context, hashes []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string)
	for _, h := range hashes {
		if p, ok := m[h]; ok {
			out[h] = p
		}
	}
	return out, nil
}

// NoHashes resolves nothing; every member gets an unknown path
type NoHashes struct{}

func (NoHashes) Resolve(ctx context.Context, hashes []uint64) (map[uint64]string, error) {
	return map[uint64]string{}, nil
}
