package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

// Orchestrator drives the exporters of every patch directory found in an
// export root. Exporters are kept newest first, each paired with the next
// older patch directory.
type Orchestrator struct {
	root      string
	exporters []*PatchExporter
	logger    *slog.Logger
}

// DiscoverVersions returns the versions of the immediate child directories
// of root, newest first. Entries whose name is not a version are ignored.
func DiscoverVersions(root string) ([]domain.Version, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var versions []domain.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			if entry.Type()&fs.ModeSymlink == 0 {
				continue
			}
			fi, err := os.Stat(filepath.Join(root, entry.Name()))
			if err != nil || !fi.IsDir() {
				continue
			}
		}
		v, err := domain.ParseVersion(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoVersionDirs, root)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[j].Less(versions[i]) })
	return versions, nil
}

// NewOrchestrator discovers the patch directories of root and matches them
// against the catalog
func NewOrchestrator(ctx context.Context, root string, catalog ports.PatchCatalog, deps Deps) (*Orchestrator, error) {
	versions, err := DiscoverVersions(root)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(versions))
	for _, v := range versions {
		wanted[v.String()] = true
	}

	all, err := catalog.Patches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}

	var patches []ports.Patch
	for _, p := range all {
		key := p.Version().String()
		if !wanted[key] {
			continue
		}
		patches = append(patches, p)
		delete(wanted, key)
		if len(wanted) == 0 {
			break
		}
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for v := range wanted {
			missing = append(missing, v)
		}
		sort.Slice(missing, func(i, j int) bool {
			return domain.MustParseVersion(missing[i]).Less(domain.MustParseVersion(missing[j]))
		})
		return nil, &MissingVersionsError{Versions: missing}
	}

	o := &Orchestrator{root: root, logger: deps.logger()}
	for i, p := range patches {
		var prev ports.Patch
		if i+1 < len(patches) {
			prev = patches[i+1]
		}
		exp, err := NewPatchExporter(filepath.Join(root, p.Version().String()), p, prev, deps)
		if err != nil {
			return nil, err
		}
		o.exporters = append(o.exporters, exp)
	}
	return o, nil
}

// Exporters returns the exporters, newest first
func (o *Orchestrator) Exporters() []*PatchExporter {
	return o.exporters
}

// Update exports every patch and writes its link manifest, newest first
func (o *Orchestrator) Update(ctx context.Context) ([]*ExportResult, error) {
	results := make([]*ExportResult, 0, len(o.exporters))
	for _, e := range o.exporters {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := e.Export(ctx)
		if err != nil {
			return results, fmt.Errorf("failed to export patch %s: %w", e.Version(), err)
		}
		if err := e.WriteLinks(); err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// CreateSymlinks materializes the links of every patch, newest first.
// Manifests not computed in this run are loaded from their sidecar.
func (o *Orchestrator) CreateSymlinks(ctx context.Context) (int, error) {
	total := 0
	for _, e := range o.exporters {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if e.State() == StateUninitialized {
			if err := e.LoadLinks(); err != nil {
				return total, fmt.Errorf("failed to load links of patch %s: %w", e.Version(), err)
			}
		}
		n, err := e.CreateSymlinks(ctx)
		total += n
		if err != nil {
			return total, fmt.Errorf("failed to create symlinks of patch %s: %w", e.Version(), err)
		}
	}
	return total, nil
}

// Upload mirrors every patch to target, oldest first so that link targets
// exist remotely before the links pointing at them
func (o *Orchestrator) Upload(ctx context.Context, target string) error {
	if _, _, err := ParseTarget(target); err != nil {
		return err
	}
	for i := len(o.exporters) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.exporters[i].Upload(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

// Status reports every patch of the chain, newest first
func (o *Orchestrator) Status() ([]PatchStatus, error) {
	statuses := make([]PatchStatus, 0, len(o.exporters))
	for _, e := range o.exporters {
		st := PatchStatus{
			Version:  e.Version(),
			Previous: e.PreviousVersion(),
			State:    e.State(),
		}
		if links, ok := e.Links(); ok {
			st.HasManifest = true
			st.LinkCount = len(links)
		} else if e.previous != nil {
			n, err := countManifest(e.LinksPath())
			if err != nil {
				return nil, err
			}
			st.HasManifest = n >= 0
			st.LinkCount = max(n, 0)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// ScanExports reports the patch directories of root without consulting a
// catalog: each directory is paired with the next older one found on disk.
func ScanExports(root string) ([]PatchStatus, error) {
	versions, err := DiscoverVersions(root)
	if err != nil {
		return nil, err
	}

	statuses := make([]PatchStatus, 0, len(versions))
	for i, v := range versions {
		st := PatchStatus{Version: v}
		if i+1 < len(versions) {
			st.Previous = versions[i+1]
		}
		n, err := countManifest(domain.LinkManifestPath(filepath.Join(root, v.String())))
		if err != nil {
			return nil, err
		}
		st.HasManifest = n >= 0
		st.LinkCount = max(n, 0)
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// countManifest returns the number of entries of a sidecar, or -1 when it
// does not exist
func countManifest(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	links, err := domain.ReadLinkManifest(f)
	if err != nil {
		return 0, err
	}
	return len(links), nil
}
