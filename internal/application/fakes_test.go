package application

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"patchlink/internal/domain"
	"patchlink/internal/ports"
)

type fakeStorage struct {
	root string
}

func (s fakeStorage) FSPath(storagePath string) string {
	return filepath.Join(s.root, filepath.FromSlash(storagePath))
}

// put writes a storage file and returns its storage path
func (s fakeStorage) put(t *testing.T, project, release, rel, content string) string {
	t.Helper()
	sp := "projects/" + project + "/releases/" + release + "/files/" + rel
	full := s.FSPath(sp)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return sp
}

type fakeProject struct {
	name  string
	paths []string
}

func (p *fakeProject) Name() string { return p.name }

func (p *fakeProject) FilePaths(ctx context.Context) ([]string, error) {
	return p.paths, nil
}

type fakeSolution struct {
	name      string
	projects  []ports.ProjectView
	downloads int
}

func (s *fakeSolution) Name() string { return s.name }

func (s *fakeSolution) Download(ctx context.Context) error {
	s.downloads++
	return nil
}

func (s *fakeSolution) Projects(ctx context.Context) ([]ports.ProjectView, error) {
	return s.projects, nil
}

type fakePatch struct {
	version   domain.Version
	solutions []ports.SolutionView
}

func (p *fakePatch) Version() domain.Version { return p.version }

func (p *fakePatch) Solutions(ctx context.Context) ([]ports.SolutionView, error) {
	return p.solutions, nil
}

// newPatch builds a patch with a single client solution holding projects
func newPatch(version string, projects ...*fakeProject) *fakePatch {
	views := make([]ports.ProjectView, len(projects))
	for i, p := range projects {
		views[i] = p
	}
	return &fakePatch{
		version:   domain.MustParseVersion(version),
		solutions: []ports.SolutionView{&fakeSolution{name: "league_client_sln", projects: views}},
	}
}

type fakeCatalog struct {
	patches []ports.Patch
}

func (c *fakeCatalog) Patches(ctx context.Context) ([]ports.Patch, error) {
	return c.patches, nil
}

// fakeArchive is an in-memory archive; member contents are keyed by path hash
type fakeArchive struct {
	members  []ports.ArchiveMember
	contents map[uint64]string
}

func (a *fakeArchive) Members() []ports.ArchiveMember { return a.members }

func (a *fakeArchive) Restrict(members []ports.ArchiveMember) ports.Archive {
	return &fakeArchive{members: members, contents: a.contents}
}

func (a *fakeArchive) Extract(ctx context.Context, dest string, overwrite bool) (int, error) {
	n := 0
	for _, m := range a.members {
		path := filepath.Join(dest, filepath.FromSlash(m.Path))
		if _, err := os.Lstat(path); err == nil && !overwrite {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return n, err
		}
		if err := os.WriteFile(path, []byte(a.contents[m.PathHash]), 0o644); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

type openCall struct {
	FSPath string
	Opts   ports.OpenOptions
}

type fakeOpener struct {
	mu       sync.Mutex
	archives map[string]*fakeArchive
	calls    []openCall
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{archives: make(map[string]*fakeArchive)}
}

// add registers an archive at fspath with members path -> content
func (o *fakeOpener) add(fspath string, files map[string]string) {
	a := &fakeArchive{contents: make(map[uint64]string)}
	for path, content := range files {
		h := fakeHash(path)
		a.members = append(a.members, ports.ArchiveMember{Path: path, PathHash: h, ContentHash: fakeHash(content)})
		a.contents[h] = content
	}
	o.archives[fspath] = a
}

func (o *fakeOpener) Open(ctx context.Context, fspath string, opts ports.OpenOptions) (ports.Archive, error) {
	o.mu.Lock()
	o.calls = append(o.calls, openCall{FSPath: fspath, Opts: opts})
	o.mu.Unlock()

	a, ok := o.archives[fspath]
	if !ok {
		return nil, os.ErrNotExist
	}
	if opts.Resolve {
		return a, nil
	}
	unresolved := make([]ports.ArchiveMember, len(a.members))
	for i, m := range a.members {
		unresolved[i] = ports.ArchiveMember{PathHash: m.PathHash, ContentHash: m.ContentHash}
	}
	return &fakeArchive{members: unresolved, contents: a.contents}, nil
}

// fakeHash is FNV-1a, good enough to key fixtures
func fakeHash(s string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

type fakeSyncer struct {
	requests []ports.SyncRequest
	err      error
}

func (s *fakeSyncer) Sync(ctx context.Context, req ports.SyncRequest) error {
	s.requests = append(s.requests, req)
	return s.err
}

// snapshot returns every file and link below root with its content or target
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	entries, err := listEntries(root)
	require.NoError(t, err)

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		full := filepath.Join(root, filepath.FromSlash(e.Path))
		if e.Link {
			target, err := os.Readlink(full)
			require.NoError(t, err)
			out[e.Path] = "-> " + target
			continue
		}
		data, err := os.ReadFile(full)
		require.NoError(t, err)
		out[e.Path] = string(data)
	}
	return out
}
