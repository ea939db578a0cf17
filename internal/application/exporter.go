package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

// DefaultSolutions are the solutions exported when none are configured
var DefaultSolutions = []string{"league_client_sln"}

// Deps holds the collaborators shared by every exporter of a chain
type Deps struct {
	Storage   ports.Storage
	Archives  ports.ArchiveOpener
	Syncer    ports.Syncer
	Logger    *slog.Logger
	Solutions []string
	Overwrite bool
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// PatchExporter exports one patch into its own output directory, sharing
// unchanged content with the previous patch's directory through symlinks.
type PatchExporter struct {
	output   string
	patch    ports.Patch
	previous ports.Patch
	deps     Deps
	logger   *slog.Logger

	state    ExporterState
	links    domain.LinkManifest
	hasLinks bool
}

// NewPatchExporter creates an exporter for patch. previous may be nil.
func NewPatchExporter(output string, patch, previous ports.Patch, deps Deps) (*PatchExporter, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	logger := deps.logger().With("patch", patch.Version().String())
	return &PatchExporter{
		output:   filepath.Clean(abs),
		patch:    patch,
		previous: previous,
		deps:     deps,
		logger:   logger,
	}, nil
}

// Output returns the patch output directory
func (e *PatchExporter) Output() string { return e.output }

// Version returns the exported patch version
func (e *PatchExporter) Version() domain.Version { return e.patch.Version() }

// PreviousVersion returns the predecessor's version, or the zero Version
func (e *PatchExporter) PreviousVersion() domain.Version {
	if e.previous == nil {
		return domain.Version{}
	}
	return e.previous.Version()
}

// State returns the current lifecycle state
func (e *PatchExporter) State() ExporterState { return e.state }

// Links returns the link manifest and whether one is set
func (e *PatchExporter) Links() (domain.LinkManifest, bool) { return e.links, e.hasLinks }

// LinksPath returns the default sidecar path for the manifest
func (e *PatchExporter) LinksPath() string { return domain.LinkManifestPath(e.output) }

// Export copies changed files into the output directory, removes stale ones
// and computes the link manifest. Running it again with overwrite disabled
// leaves the directory and the manifest unchanged.
func (e *PatchExporter) Export(ctx context.Context) (*ExportResult, error) {
	if e.previous != nil {
		e.logger.Info("exporting patch", "previous", e.previous.Version().String())
	} else {
		e.logger.Info("exporting patch (full)")
	}

	projects, err := e.projects(ctx, e.patch)
	if err != nil {
		return nil, err
	}
	var prevProjects []ports.ProjectView
	if e.previous != nil {
		prevProjects, err = e.projects(ctx, e.previous)
		if err != nil {
			return nil, err
		}
	}

	classifier := NewClassifier(e.deps.Storage, e.deps.Archives, e.output, e.deps.Overwrite, e.logger)
	res, err := classifier.Classify(ctx, projects, prevProjects, e.previous != nil)
	if err != nil {
		var dup *DuplicateFilesError
		if errors.As(err, &dup) {
			dup.Version = e.patch.Version().String()
		}
		return nil, err
	}

	e.links = res.Links
	e.hasLinks = e.previous != nil
	e.state = StateExported

	return &ExportResult{
		Version:   e.patch.Version(),
		Previous:  e.PreviousVersion(),
		Changed:   len(res.Changed),
		Unchanged: len(res.Unchanged),
		Removed:   len(res.Removed),
		Extracted: res.Extracted,
		Links:     res.Links,
	}, nil
}

// projects downloads the selected solutions of a patch and returns their
// projects, de-duplicated by name
func (e *PatchExporter) projects(ctx context.Context, patch ports.Patch) ([]ports.ProjectView, error) {
	solutions, err := patch.Solutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions of patch %s: %w", patch.Version(), err)
	}

	wanted := e.deps.Solutions
	if len(wanted) == 0 {
		wanted = DefaultSolutions
	}

	seen := make(map[string]bool)
	var projects []ports.ProjectView
	for _, sv := range solutions {
		if !slices.Contains(wanted, sv.Name()) {
			continue
		}
		if err := sv.Download(ctx); err != nil {
			return nil, fmt.Errorf("failed to download solution %s: %w", sv.Name(), err)
		}
		pvs, err := sv.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of solution %s: %w", sv.Name(), err)
		}
		for _, pv := range pvs {
			if seen[pv.Name()] {
				continue
			}
			seen[pv.Name()] = true
			projects = append(projects, pv)
		}
	}
	return projects, nil
}

// WriteLinks writes the manifest next to the output directory.
// It is a no-op when no manifest is set.
func (e *PatchExporter) WriteLinks() error {
	return e.WriteLinksTo(e.LinksPath())
}

// WriteLinksTo writes the manifest to path atomically.
// It is a no-op when no manifest is set.
func (e *PatchExporter) WriteLinksTo(path string) error {
	if !e.hasLinks {
		return nil
	}

	data := e.links.Encode()
	old, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(old, data):
		e.logger.Debug("link manifest unchanged", "path", path)
	case err == nil:
		e.logManifestDiff(path, old, data)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to read link manifest: %w", err)
	}

	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write link manifest: %w", err)
	}

	e.logger.Info("wrote link manifest", "path", path, "links", len(e.links))
	if e.state < StateLinksWritten {
		e.state = StateLinksWritten
	}
	return nil
}

func (e *PatchExporter) logManifestDiff(path string, old, data []byte) {
	if !e.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(data)),
		FromFile: path + " (old)",
		ToFile:   path,
		Context:  0,
	})
	if err != nil {
		return
	}

	var added, removed int
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	e.logger.Debug("link manifest changed", "path", path, "added", added, "removed", removed, "diff", diff)
}

// LoadLinks reads the manifest back from the sidecar written by WriteLinks.
// A patch without predecessor has no manifest and nothing is read.
func (e *PatchExporter) LoadLinks() error {
	if e.previous == nil {
		return nil
	}

	f, err := os.Open(e.LinksPath())
	if err != nil {
		return fmt.Errorf("failed to open link manifest: %w", err)
	}
	defer f.Close()

	links, err := domain.ReadLinkManifest(f)
	if err != nil {
		return err
	}

	e.links = links
	e.hasLinks = true
	if e.state < StateLinksWritten {
		e.state = StateLinksWritten
	}
	return nil
}

// CreateSymlinks materializes the manifest as relative symlinks into the
// previous patch directory and returns the number of links created.
// Existing links are kept; an entry occupied by anything else is a
// LinkConflictError and nothing is removed.
func (e *PatchExporter) CreateSymlinks(ctx context.Context) (int, error) {
	if !e.hasLinks {
		return 0, nil
	}

	prevOutput := filepath.Join(filepath.Dir(e.output), e.previous.Version().String())
	e.logger.Info("creating symlinks", "links", len(e.links))

	created := 0
	for _, link := range e.links {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		dst := filepath.Join(e.output, filepath.FromSlash(link))
		fi, err := os.Lstat(dst)
		if err == nil {
			if fi.Mode()&fs.ModeSymlink == 0 {
				return created, &LinkConflictError{Path: dst}
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return created, err
		}

		dstDir := filepath.Dir(dst)
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return created, fmt.Errorf("failed to create directory: %w", err)
		}
		realDir, err := filepath.EvalSymlinks(dstDir)
		if err != nil {
			return created, err
		}
		src, err := resolvePath(filepath.Join(prevOutput, filepath.FromSlash(link)))
		if err != nil {
			return created, err
		}
		rel, err := filepath.Rel(realDir, src)
		if err != nil {
			return created, err
		}

		e.logger.Debug("create symlink", "path", dst, "target", rel)
		if err := os.Symlink(rel, dst); err != nil {
			return created, fmt.Errorf("failed to create symlink: %w", err)
		}
		created++
	}

	e.state = StateLinksMaterialized
	return created, nil
}

// Upload mirrors the output directory to target ("host:dir")
func (e *PatchExporter) Upload(ctx context.Context, target string) error {
	if _, _, err := ParseTarget(target); err != nil {
		return err
	}
	if e.deps.Syncer == nil {
		return fmt.Errorf("failed to upload patch %s: no syncer configured", e.patch.Version())
	}

	req := ports.SyncRequest{
		OutputDir:       e.output,
		Version:         e.patch.Version(),
		PreviousVersion: e.PreviousVersion(),
		Target:          target,
	}
	if e.previous != nil {
		req.LinksFile = e.LinksPath()
	}

	e.logger.Info("synchronizing patch", "target", target)
	if err := e.deps.Syncer.Sync(ctx, req); err != nil {
		return fmt.Errorf("failed to upload patch %s: %w", e.patch.Version(), err)
	}
	return nil
}
