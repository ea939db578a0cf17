package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

// pluginArchiveRe matches front-end plugin archives, whose unknown members
// are grouped under the plugin directory
var pluginArchiveRe = regexp.MustCompile(`(?i)/(plugins/rcp-.+?)/[^/]*assets\.wad$`)

// UnknownPrefix returns the directory used for archive members whose path
// hash could not be resolved
func UnknownPrefix(storagePath string) string {
	if m := pluginArchiveRe.FindStringSubmatch(storagePath); m != nil {
		return strings.ToLower(m[1]) + "/unknown"
	}
	return "unknown"
}

// Classifier compares the files of a patch with those of its predecessor,
// exports what changed into the output directory and removes stale entries.
type Classifier struct {
	storage   ports.Storage
	archives  ports.ArchiveOpener
	logger    *slog.Logger
	output    string
	overwrite bool

	// resolved member paths, keyed by storage path
	members map[string][]string
}

// NewClassifier creates a classifier writing into output
func NewClassifier(storage ports.Storage, archives ports.ArchiveOpener, output string, overwrite bool, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		storage:   storage,
		archives:  archives,
		logger:    logger,
		output:    output,
		overwrite: overwrite,
		members:   make(map[string][]string),
	}
}

// ClassifyResult is a Classification plus the export side effects
type ClassifyResult struct {
	Classification
	Extracted int

	// Links is nil when there is no previous patch
	Links domain.LinkManifest
}

// Classify runs the comparison. hasPrevious is false for the first patch of
// a chain, in which case prevProjects is ignored and no links are computed.
func (c *Classifier) Classify(ctx context.Context, projects, prevProjects []ports.ProjectView, hasPrevious bool) (*ClassifyResult, error) {
	before, err := listEntries(c.output)
	if err != nil {
		return nil, err
	}

	if !hasPrevious {
		prevProjects = nil
	}
	prevByName := make(map[string]ports.ProjectView, len(prevProjects))
	for _, pv := range prevProjects {
		prevByName[pv.Name()] = pv
	}

	sorted := append([]ports.ProjectView(nil), projects...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	res := &ClassifyResult{}
	var changed, unchanged []string

	for _, pv := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prevPaths := make(map[string]string)
		if prev, ok := prevByName[pv.Name()]; ok {
			paths, err := prev.FilePaths(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list files of previous project %s: %w", prev.Name(), err)
			}
			for _, sp := range paths {
				ep, err := domain.ToExportPath(sp)
				if err != nil {
					return nil, err
				}
				prevPaths[ep] = sp
			}
		}

		paths, err := pv.FilePaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of project %s: %w", pv.Name(), err)
		}

		for _, sp := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			ep, err := domain.ToExportPath(sp)
			if err != nil {
				return nil, err
			}
			prevSP, hasPrev := prevPaths[ep]

			switch {
			case domain.IsArchivePath(sp):
				archChanged, archUnchanged, n, err := c.classifyArchive(ctx, sp, prevSP, hasPrev)
				if err != nil {
					return nil, err
				}
				changed = append(changed, archChanged...)
				unchanged = append(unchanged, archUnchanged...)
				res.Extracted += n

			case domain.IsDescriptionPath(sp):
				// archived copies are authoritative
				continue

			case hasPrev && prevSP == sp:
				c.logger.Debug("unchanged file", "path", sp)
				unchanged = append(unchanged, ep)

			default:
				c.logger.Debug("modified file", "path", sp)
				changed = append(changed, ep)
				copied, err := c.exportFile(sp, ep)
				if err != nil {
					return nil, err
				}
				if copied {
					res.Extracted++
				}
			}
		}
	}

	sort.Strings(changed)
	sort.Strings(unchanged)
	res.Changed = changed
	res.Unchanged = unchanged

	if dups := intersect(changed, unchanged); len(dups) > 0 {
		return nil, &DuplicateFilesError{Paths: dups}
	}

	removed, err := c.removeStale(before, changed, unchanged)
	if err != nil {
		return nil, err
	}
	res.Removed = removed

	if hasPrevious {
		prevFiles, err := c.previousFiles(ctx, prevProjects)
		if err != nil {
			return nil, err
		}
		res.PreviousFiles = prevFiles
		res.Links = domain.NewLinkManifest(domain.ReducePaths(unchanged, prevFiles, changed))
	}

	return res, nil
}

func (c *Classifier) classifyArchive(ctx context.Context, sp, prevSP string, hasPrev bool) (changed, unchanged []string, extracted int, err error) {
	archive, err := c.archives.Open(ctx, c.storage.FSPath(sp), ports.OpenOptions{
		Resolve:       true,
		UnknownPrefix: UnknownPrefix(sp),
	})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open archive %s: %w", sp, err)
	}

	members := archive.Members()
	c.members[sp] = memberPaths(members)

	if hasPrev && prevSP == sp {
		c.logger.Debug("unchanged archive", "path", sp)
		return nil, c.members[sp], 0, nil
	}

	c.logger.Debug("modified archive", "path", sp)
	toExtract := members
	if hasPrev {
		// paths are not needed to compare contents
		prevArchive, err := c.archives.Open(ctx, c.storage.FSPath(prevSP), ports.OpenOptions{})
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to open previous archive %s: %w", prevSP, err)
		}
		prevContent := make(map[uint64]uint64, len(prevArchive.Members()))
		for _, m := range prevArchive.Members() {
			prevContent[m.PathHash] = m.ContentHash
		}

		toExtract = nil
		for _, m := range members {
			if h, ok := prevContent[m.PathHash]; ok && h == m.ContentHash {
				unchanged = append(unchanged, m.Path)
			} else {
				toExtract = append(toExtract, m)
			}
		}
	}

	changed = memberPaths(toExtract)
	for _, p := range changed {
		if err := clearPath(c.output, p); err != nil {
			return nil, nil, 0, err
		}
	}

	c.logger.Info("exporting archive members", "count", len(toExtract), "archive", sp)
	n, err := archive.Restrict(toExtract).Extract(ctx, c.output, c.overwrite)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to extract %s: %w", sp, err)
	}
	return changed, unchanged, n, nil
}

func (c *Classifier) exportFile(sp, ep string) (bool, error) {
	if err := clearPath(c.output, ep); err != nil {
		return false, err
	}

	copied, err := copyFile(c.storage.FSPath(sp), filepath.Join(c.output, filepath.FromSlash(ep)), c.overwrite)
	if err != nil {
		return false, fmt.Errorf("failed to export %s: %w", sp, err)
	}
	if copied {
		c.logger.Info("exported file", "path", ep)
	}
	return copied, nil
}

// removeStale deletes entries that existed before the run and are neither
// changed files nor links standing for unchanged content
func (c *Classifier) removeStale(before []outputEntry, changed, unchanged []string) ([]string, error) {
	changedSet := make(map[string]bool, len(changed))
	for _, p := range changed {
		changedSet[p] = true
	}
	unchangedTree := domain.BuildPathTree(unchanged)

	var stale []string
	for _, e := range before {
		if changedSet[e.Path] {
			continue
		}
		if e.Link && coversTree(unchangedTree, e.Path) {
			continue
		}
		c.logger.Info("removing stale entry", "path", e.Path)
		stale = append(stale, e.Path)
	}

	if err := removeEntries(c.output, stale); err != nil {
		return nil, err
	}
	return stale, nil
}

func (c *Classifier) previousFiles(ctx context.Context, prevProjects []ports.ProjectView) ([]string, error) {
	var files []string
	for _, pv := range prevProjects {
		paths, err := pv.FilePaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of previous project %s: %w", pv.Name(), err)
		}
		for _, sp := range paths {
			if !domain.IsArchivePath(sp) {
				ep, err := domain.ToExportPath(sp)
				if err != nil {
					return nil, err
				}
				files = append(files, ep)
				continue
			}

			members, ok := c.members[sp]
			if !ok {
				archive, err := c.archives.Open(ctx, c.storage.FSPath(sp), ports.OpenOptions{
					Resolve:       true,
					UnknownPrefix: UnknownPrefix(sp),
				})
				if err != nil {
					return nil, fmt.Errorf("failed to open previous archive %s: %w", sp, err)
				}
				members = memberPaths(archive.Members())
				c.members[sp] = members
			}
			files = append(files, members...)
		}
	}
	sort.Strings(files)
	return files, nil
}

// coversTree reports whether path names a node of tree
func coversTree(tree *domain.PathTree, path string) bool {
	node := tree
	for _, seg := range strings.Split(path, "/") {
		node = node.Child(seg)
		if node == nil {
			return false
		}
	}
	return true
}

func memberPaths(members []ports.ArchiveMember) []string {
	paths := make([]string, len(members))
	for i, m := range members {
		paths[i] = m.Path
	}
	return paths
}

// intersect returns the sorted values present in both sorted slices
func intersect(a, b []string) []string {
	var out []string
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			if len(out) == 0 || out[len(out)-1] != a[i] {
				out = append(out, a[i])
			}
			i++
			j++
		}
	}
	return out
}
