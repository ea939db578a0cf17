package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchlink/internal/ports"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o755))
	}
}

func versionsOf(exporters []*PatchExporter) (versions, previous []string) {
	for _, e := range exporters {
		versions = append(versions, e.Version().String())
		previous = append(previous, e.PreviousVersion().String())
	}
	return versions, previous
}

func TestDiscoverVersions(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "9.10", "9.9", "10.1", "latest", "9.09")
	require.NoError(t, os.WriteFile(filepath.Join(root, "9.8"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "9.9.links.txt"), nil, 0o644))

	versions, err := DiscoverVersions(root)
	require.NoError(t, err)

	var got []string
	for _, v := range versions {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"10.1", "9.10", "9.9"}, got)
}

func TestDiscoverVersions_NoVersionDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "tmp")

	_, err := DiscoverVersions(root)
	assert.ErrorIs(t, err, ErrNoVersionDirs)
}

func TestNewOrchestrator_BuildsChain(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "9.1", "9.3", "9.4")

	catalog := &fakeCatalog{patches: []ports.Patch{
		newPatch("9.5"),
		newPatch("9.4"),
		newPatch("9.3"),
		newPatch("9.2"),
		newPatch("9.1"),
	}}

	o, err := NewOrchestrator(context.Background(), root, catalog, Deps{})
	require.NoError(t, err)

	versions, previous := versionsOf(o.Exporters())
	assert.Equal(t, []string{"9.4", "9.3", "9.1"}, versions)
	// 9.2 is not exported, so 9.3 builds on 9.1
	assert.Equal(t, []string{"9.3", "9.1", ""}, previous)
}

func TestNewOrchestrator_UnknownVersion(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "9.1", "8.24", "7.1")

	catalog := &fakeCatalog{patches: []ports.Patch{newPatch("9.1")}}

	_, err := NewOrchestrator(context.Background(), root, catalog, Deps{})

	require.ErrorIs(t, err, ErrUnknownVersion)
	var missing *MissingVersionsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"7.1", "8.24"}, missing.Versions)
}

// chainFixture has three patches sharing a.txt; b.txt changes in 9.2 only
func chainFixture(t *testing.T) (*Orchestrator, string, *fakeSyncer) {
	t.Helper()
	storage := fakeStorage{root: t.TempDir()}
	a := storage.put(t, "client", "1.0", "a.txt", "a")
	b1 := storage.put(t, "client", "1.0", "dir/b.txt", "b1")
	b2 := storage.put(t, "client", "2.0", "dir/b.txt", "b2")

	catalog := &fakeCatalog{patches: []ports.Patch{
		newPatch("9.3", &fakeProject{name: "client", paths: []string{a, b2}}),
		newPatch("9.2", &fakeProject{name: "client", paths: []string{a, b2}}),
		newPatch("9.1", &fakeProject{name: "client", paths: []string{a, b1}}),
	}}

	root := t.TempDir()
	mkdirs(t, root, "9.1", "9.2", "9.3")

	syncer := &fakeSyncer{}
	o, err := NewOrchestrator(context.Background(), root, catalog, Deps{
		Storage:  storage,
		Archives: newFakeOpener(),
		Syncer:   syncer,
	})
	require.NoError(t, err)
	return o, root, syncer
}

func TestOrchestrator_UpdateAndCreateSymlinks(t *testing.T) {
	o, root, _ := chainFixture(t)
	ctx := context.Background()

	results, err := o.Update(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	links, err := os.ReadFile(filepath.Join(root, "9.3.links.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt\ndir\n", string(links))

	links, err = os.ReadFile(filepath.Join(root, "9.2.links.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt\n", string(links))

	_, err = os.Stat(filepath.Join(root, "9.1.links.txt"))
	assert.True(t, os.IsNotExist(err))

	n, err := o.CreateSymlinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// chained links resolve down to the oldest copy
	for _, rel := range []string{"9.3/a.txt", "9.2/a.txt"} {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, "a", string(data), rel)
	}
	data, err := os.ReadFile(filepath.Join(root, "9.3", "dir", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b2", string(data))

	target, err := os.Readlink(filepath.Join(root, "9.3", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("..", "9.2", "a.txt"), target)
}

func TestOrchestrator_CreateSymlinks_LoadsManifests(t *testing.T) {
	o, root, _ := chainFixture(t)
	ctx := context.Background()

	_, err := o.Update(ctx)
	require.NoError(t, err)

	// a separate invocation starts from the sidecars
	fresh, _, _ := chainFixture(t)
	for _, e := range fresh.Exporters() {
		e.output = filepath.Join(root, e.Version().String())
	}

	n, err := fresh.CreateSymlinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOrchestrator_CreateSymlinks_MissingManifest(t *testing.T) {
	o, _, _ := chainFixture(t)

	_, err := o.CreateSymlinks(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOrchestrator_Upload_OldestFirst(t *testing.T) {
	o, _, syncer := chainFixture(t)

	require.NoError(t, o.Upload(context.Background(), "cdn:/srv/patches"))

	var order []string
	for _, req := range syncer.requests {
		order = append(order, req.Version.String())
	}
	assert.Equal(t, []string{"9.1", "9.2", "9.3"}, order)
	assert.Empty(t, syncer.requests[0].LinksFile)
	assert.NotEmpty(t, syncer.requests[1].LinksFile)
}

func TestOrchestrator_Upload_InvalidTarget(t *testing.T) {
	o, _, syncer := chainFixture(t)

	err := o.Upload(context.Background(), "/srv/patches")
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Empty(t, syncer.requests)
}

func TestOrchestrator_Upload_StopsOnFailure(t *testing.T) {
	o, _, syncer := chainFixture(t)
	syncer.err = errors.New("rsync exited 23")

	err := o.Upload(context.Background(), "cdn:/srv/patches")
	require.Error(t, err)
	assert.Len(t, syncer.requests, 1)
}

func TestOrchestrator_Update_Cancelled(t *testing.T) {
	o, _, _ := chainFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := o.Update(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestOrchestrator_Status(t *testing.T) {
	o, root, _ := chainFixture(t)

	statuses, err := o.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, st := range statuses {
		assert.False(t, st.HasManifest)
	}

	_, err = o.Update(context.Background())
	require.NoError(t, err)

	statuses, err = o.Status()
	require.NoError(t, err)
	assert.Equal(t, "9.3", statuses[0].Version.String())
	assert.Equal(t, "9.2", statuses[0].Previous.String())
	assert.True(t, statuses[0].HasManifest)
	assert.Equal(t, 2, statuses[0].LinkCount)
	assert.Equal(t, StateLinksWritten, statuses[0].State)
	assert.False(t, statuses[2].HasManifest)

	scanned, err := ScanExports(root)
	require.NoError(t, err)
	require.Len(t, scanned, 3)
	assert.Equal(t, 2, scanned[0].LinkCount)
	assert.Equal(t, 1, scanned[1].LinkCount)
	assert.False(t, scanned[2].HasManifest)
}
