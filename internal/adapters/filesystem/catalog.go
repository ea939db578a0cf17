package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

// CatalogFile is the patch list kept at the root of the storage
const CatalogFile = "patches.yaml"

// ErrReleaseNotStored is returned when a release listed in the catalog has
// no files in the local storage
var ErrReleaseNotStored = errors.New("release not stored locally")

var _ ports.PatchCatalog = (*Catalog)(nil)

type catalogFile struct {
	Patches []patchEntry `yaml:"patches"`
}

type patchEntry struct {
	Version   string          `yaml:"version"`
	Solutions []solutionEntry `yaml:"solutions"`
}

type solutionEntry struct {
	Name     string         `yaml:"name"`
	Projects []projectEntry `yaml:"projects"`
}

type projectEntry struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Catalog implements ports.PatchCatalog from the storage's patches.yaml
type Catalog struct {
	storage *Storage
}

// NewCatalog creates a catalog over storage
func NewCatalog(storage *Storage) *Catalog {
	return &Catalog{storage: storage}
}

// Patches returns every patch listed in patches.yaml, newest first
func (c *Catalog) Patches(ctx context.Context) ([]ports.Patch, error) {
	data, err := os.ReadFile(filepath.Join(c.storage.Root(), CatalogFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read patch catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse patch catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Patches))
	patches := make([]*patch, 0, len(file.Patches))
	for _, pe := range file.Patches {
		v, err := domain.ParseVersion(pe.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to parse patch catalog: %w", err)
		}
		if seen[v.String()] {
			return nil, fmt.Errorf("failed to parse patch catalog: duplicate patch %s", v)
		}
		seen[v.String()] = true

		p := &patch{version: v}
		for _, se := range pe.Solutions {
			s := &solution{name: se.Name, storage: c.storage}
			for _, prj := range se.Projects {
				if prj.Name == "" || prj.Version == "" {
					return nil, fmt.Errorf("failed to parse patch catalog: patch %s: project without name or version", v)
				}
				s.projects = append(s.projects, &project{name: prj.Name, version: prj.Version, storage: c.storage})
			}
			p.solutions = append(p.solutions, s)
		}
		patches = append(patches, p)
	}

	sort.Slice(patches, func(i, j int) bool { return patches[j].version.Less(patches[i].version) })

	out := make([]ports.Patch, len(patches))
	for i, p := range patches {
		out[i] = p
	}
	return out, nil
}

type patch struct {
	version   domain.Version
	solutions []*solution
}

func (p *patch) Version() domain.Version { return p.version }

func (p *patch) Solutions(ctx context.Context) ([]ports.SolutionView, error) {
	views := make([]ports.SolutionView, len(p.solutions))
	for i, s := range p.solutions {
		views[i] = s
	}
	return views, nil
}

type solution struct {
	name     string
	projects []*project
	storage  *Storage
}

func (s *solution) Name() string { return s.name }

// Download checks that every project release is present in the storage.
// Fetching missing releases from a remote is not supported.
func (s *solution) Download(ctx context.Context) error {
	for _, p := range s.projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := s.storage.FSPath(releaseDir(p.name, p.version))
		fi, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.IsDir()) {
			return fmt.Errorf("%w: %s %s", ErrReleaseNotStored, p.name, p.version)
		}
		if err != nil {
			return fmt.Errorf("failed to check release %s %s: %w", p.name, p.version, err)
		}
	}
	return nil
}

func (s *solution) Projects(ctx context.Context) ([]ports.ProjectView, error) {
	views := make([]ports.ProjectView, len(s.projects))
	for i, p := range s.projects {
		views[i] = p
	}
	return views, nil
}

type project struct {
	name    string
	version string
	storage *Storage

	mu    sync.Mutex
	paths []string
}

func (p *project) Name() string { return p.name }

// FilePaths walks the release files once and caches the sorted result
func (p *project) FilePaths(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paths != nil {
		return p.paths, nil
	}

	prefix := releaseDir(p.name, p.version)
	root := p.storage.FSPath(prefix)
	paths := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, prefix+"/"+filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrReleaseNotStored, p.name, p.version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list release files: %w", err)
	}

	sort.Strings(paths)
	p.paths = paths
	return paths, nil
}
