package wad

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"patchlink/internal/ports"
)

var (
	_ ports.ArchiveOpener = (*Opener)(nil)
	_ ports.Archive       = (*Archive)(nil)
)

// Opener opens WAD archives, resolving member paths through a hash resolver
type Opener struct {
	hashes ports.HashResolver
	logger *slog.Logger
}

// NewOpener creates an opener. A nil resolver resolves nothing.
func NewOpener(hashes ports.HashResolver, logger *slog.Logger) *Opener {
	if hashes == nil {
		hashes = NoHashes{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Opener{hashes: hashes, logger: logger}
}

// Archive is the parsed table of contents of a WAD file
type Archive struct {
	path    string
	version uint8
	entries map[uint64]entry
	members []ports.ArchiveMember
}

// Open reads the table of contents of the WAD file at fspath.
//
// With opts.Resolve set, member paths come from the hash resolver; unknown
// members are named "<UnknownPrefix>/<hash>.<ext>" with the extension guessed
// from their content. Without it, member paths are left empty.
func (o *Opener) Open(ctx context.Context, fspath string, opts ports.OpenOptions) (ports.Archive, error) {
	f, err := os.Open(fspath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	major, entries, err := readTOC(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fspath, err)
	}

	a := &Archive{
		path:    fspath,
		version: major,
		entries: make(map[uint64]entry, len(entries)),
		members: make([]ports.ArchiveMember, 0, len(entries)),
	}

	for _, e := range entries {
		if _, dup := a.entries[e.PathHash]; dup {
			continue
		}
		if major == 1 {
			// no checksum in v1, hash the stored bytes instead
			raw, err := readRaw(f, e)
			if err != nil {
				return nil, err
			}
			e.Checksum = xxhash.Sum64(raw)
		}
		a.entries[e.PathHash] = e
		a.members = append(a.members, ports.ArchiveMember{PathHash: e.PathHash, ContentHash: e.Checksum})
	}

	if !opts.Resolve {
		return a, nil
	}

	hashes := make([]uint64, len(a.members))
	for i, m := range a.members {
		hashes[i] = m.PathHash
	}
	known, err := o.hashes.Resolve(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive paths: %w", err)
	}

	prefix := opts.UnknownPrefix
	if prefix == "" {
		prefix = "unknown"
	}

	unknown := 0
	for i := range a.members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := &a.members[i]
		if p, ok := known[m.PathHash]; ok {
			m.Path = strings.ToLower(p)
			continue
		}

		unknown++
		name := fmt.Sprintf("%016x", m.PathHash)
		if ext := o.guess(f, a.entries[m.PathHash]); ext != "" {
			name += "." + ext
		}
		m.Path = path.Join(prefix, name)
	}

	if unknown > 0 {
		o.logger.Debug("unresolved archive members", "archive", fspath, "count", unknown)
	}
	return a, nil
}

func (o *Opener) guess(f *os.File, e entry) string {
	if e.Kind == kindRedirection {
		return ""
	}
	raw, err := readRaw(f, e)
	if err != nil {
		return ""
	}
	data, err := decode(e, raw)
	if err != nil {
		return ""
	}
	return guessExtension(data)
}

// Version returns the major format version
func (a *Archive) Version() uint8 {
	return a.version
}

// Members returns the archive members in table-of-contents order
func (a *Archive) Members() []ports.ArchiveMember {
	return a.members
}

// Restrict returns a view of the archive limited to members
func (a *Archive) Restrict(members []ports.ArchiveMember) ports.Archive {
	keep := make([]ports.ArchiveMember, 0, len(members))
	for _, m := range members {
		if _, ok := a.entries[m.PathHash]; ok {
			keep = append(keep, m)
		}
	}
	return &Archive{path: a.path, version: a.version, entries: a.entries, members: keep}
}

// Extract writes every member under dest. Members without a path are
// skipped. Existing files are kept unless overwrite is set; a member only
// appears at its path once fully written.
func (a *Archive) Extract(ctx context.Context, dest string, overwrite bool) (int, error) {
	if len(a.members) == 0 {
		return 0, nil
	}

	f, err := os.Open(a.path)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	written := 0
	for _, m := range a.members {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if m.Path == "" {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(m.Path))
		if !overwrite {
			if _, err := os.Lstat(target); err == nil {
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, err
			}
		}

		e := a.entries[m.PathHash]
		raw, err := readRaw(f, e)
		if err != nil {
			return written, err
		}
		data, err := decode(e, raw)
		if err != nil {
			return written, err
		}

		if err := writeMember(target, data); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", m.Path, err)
		}
		written++
	}
	return written, nil
}

// writeMember writes data to a temporary sibling of target and renames it
// into place
func writeMember(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(target)+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
