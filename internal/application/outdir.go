package application

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// outputEntry is a file or symlink found in a patch output directory
type outputEntry struct {
	Path string // slash-separated, relative to the output root
	Link bool
}

// listEntries walks root and returns its regular files and symlinks, sorted.
// Symlinks are reported but never followed. A missing root yields no entries.
func listEntries(root string) ([]outputEntry, error) {
	var entries []outputEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if path == root {
			return nil
		}

		isLink := d.Type()&fs.ModeSymlink != 0
		if d.IsDir() && !isLink {
			return nil
		}
		if !isLink && !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, outputEntry{Path: filepath.ToSlash(rel), Link: isLink})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// clearPath prepares rel below root for a write. A symlink at rel or at one
// of its ancestors is removed so the write lands in root itself instead of
// going through a link into another patch directory. A regular file where
// an ancestor directory is needed is removed, and so is a directory standing
// at rel itself, with its content.
func clearPath(root, rel string) error {
	segs := strings.Split(rel, "/")
	current := root
	for i, seg := range segs {
		current = filepath.Join(current, seg)
		fi, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}

		last := i == len(segs)-1
		switch {
		case fi.Mode()&fs.ModeSymlink != 0:
			if err := os.Remove(current); err != nil {
				return fmt.Errorf("failed to remove link %s: %w", current, err)
			}
			return nil
		case !last && !fi.IsDir():
			if err := os.Remove(current); err != nil {
				return fmt.Errorf("failed to remove file %s: %w", current, err)
			}
			return nil
		case last && fi.IsDir():
			if err := os.RemoveAll(current); err != nil {
				return fmt.Errorf("failed to remove directory %s: %w", current, err)
			}
			return nil
		}
	}
	return nil
}

// copyFile copies src to dst through a temporary file in dst's directory.
// When overwrite is false and dst already exists, nothing is written and
// false is returned.
func copyFile(src, dst string, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return false, nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	if err := writeFileAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileAtomic writes path via a temporary sibling then renames it into
// place, so readers never observe a partially-written file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := write(f); err != nil {
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
	return os.Rename(tmp, path)
}

// removeEntries deletes the given files and links under root, then prunes
// directories left empty, stopping at root. Paths that are directories by
// now are left alone.
func removeEntries(root string, paths []string) error {
	for _, rel := range paths {
		full := filepath.Join(root, filepath.FromSlash(rel))
		// replaced by a directory earlier in the run
		if fi, err := os.Lstat(full); err == nil && fi.IsDir() {
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", full, err)
		}

		for dir := filepath.Dir(full); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
			// fails on non-empty directories
			if err := os.Remove(dir); err != nil {
				break
			}
		}
	}
	return nil
}

// resolvePath resolves every symlink along path. The longest existing prefix
// is resolved with EvalSymlinks and the missing remainder is appended as-is.
func resolvePath(path string) (string, error) {
	path = filepath.Clean(path)
	var rest []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}
