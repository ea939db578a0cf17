package wad

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchlink/internal/ports"
)

type testMember struct {
	path string
	data []byte
	kind uint8
}

func compress(t *testing.T, kind uint8, data []byte) []byte {
	t.Helper()
	switch kind {
	case kindGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		return buf.Bytes()
	case kindZstd:
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(data, nil)
	default:
		return data
	}
}

// writeV3 builds a version 3 archive at path
func writeV3(t *testing.T, path string, members []testMember) {
	t.Helper()
	le := binary.LittleEndian

	header := make([]byte, headerSizeV3)
	copy(header, "RW")
	header[2], header[3] = 3, 0
	le.PutUint32(header[268:], uint32(len(members)))

	toc := make([]byte, entrySizeV3*len(members))
	var payload bytes.Buffer
	offset := headerSizeV3 + len(toc)

	for i, m := range members {
		stored := compress(t, m.kind, m.data)
		b := toc[i*entrySizeV3:]
		le.PutUint64(b[0:], HashPath(m.path))
		le.PutUint32(b[8:], uint32(offset+payload.Len()))
		le.PutUint32(b[12:], uint32(len(stored)))
		le.PutUint32(b[16:], uint32(len(m.data)))
		b[20] = m.kind
		le.PutUint64(b[24:], xxhash.Sum64(m.data))
		payload.Write(stored)
	}

	out := append(append(header, toc...), payload.Bytes()...)
	require.NoError(t, os.WriteFile(path, out, 0o644))
}

// writeV1 builds a version 1 archive with uncompressed members
func writeV1(t *testing.T, path string, members []testMember) {
	t.Helper()
	le := binary.LittleEndian

	header := make([]byte, headerSizeV1)
	copy(header, "RW")
	header[2] = 1
	le.PutUint16(header[4:], headerSizeV1)
	le.PutUint16(header[6:], entrySizeV1)
	le.PutUint32(header[8:], uint32(len(members)))

	toc := make([]byte, entrySizeV1*len(members))
	var payload bytes.Buffer
	offset := headerSizeV1 + len(toc)
	for i, m := range members {
		b := toc[i*entrySizeV1:]
		le.PutUint64(b[0:], HashPath(m.path))
		le.PutUint32(b[8:], uint32(offset+payload.Len()))
		le.PutUint32(b[12:], uint32(len(m.data)))
		le.PutUint32(b[16:], uint32(len(m.data)))
		payload.Write(m.data)
	}

	out := append(append(header, toc...), payload.Bytes()...)
	require.NoError(t, os.WriteFile(path, out, 0o644))
}

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)

func sampleMembers() []testMember {
	return []testMember{
		{path: "plugins/rcp-fe/index.html", data: []byte("<html>home</html>"), kind: kindRaw},
		{path: "plugins/rcp-fe/app.js", data: bytes.Repeat([]byte("console.log(1);\n"), 64), kind: kindGzip},
		{path: "plugins/rcp-fe/data.json", data: []byte(`{"a": 1}`), kind: kindZstd},
		{path: "plugins/rcp-fe/images/icon.png", data: pngData, kind: kindZstd},
	}
}

func TestOpen_ResolvesKnownAndUnknownPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.wad")
	writeV3(t, path, sampleMembers())

	resolver := NewMapResolver("plugins/rcp-fe/index.html", "Plugins/RCP-FE/App.js", "plugins/rcp-fe/data.json")
	archive, err := NewOpener(resolver, nil).Open(context.Background(), path, ports.OpenOptions{
		Resolve:       true,
		UnknownPrefix: "plugins/rcp-fe/unknown",
	})
	require.NoError(t, err)

	var paths []string
	for _, m := range archive.Members() {
		paths = append(paths, m.Path)
	}
	iconHash := HashPath("plugins/rcp-fe/images/icon.png")
	assert.Equal(t, []string{
		"plugins/rcp-fe/index.html",
		"plugins/rcp-fe/app.js",
		"plugins/rcp-fe/data.json",
		"plugins/rcp-fe/unknown/" + hex16(iconHash) + ".png",
	}, paths)
	assert.Equal(t, uint8(3), archive.(*Archive).Version())
}

func hex16(h uint64) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = digits[h&0xf]
		h >>= 4
	}
	return string(b)
}

func TestOpen_WithoutResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.wad")
	members := sampleMembers()
	writeV3(t, path, members)

	archive, err := NewOpener(NewMapResolver("plugins/rcp-fe/index.html"), nil).Open(context.Background(), path, ports.OpenOptions{})
	require.NoError(t, err)

	require.Len(t, archive.Members(), len(members))
	for i, m := range archive.Members() {
		assert.Empty(t, m.Path)
		assert.Equal(t, HashPath(members[i].path), m.PathHash)
		assert.Equal(t, xxhash.Sum64(members[i].data), m.ContentHash)
	}

	n, err := archive.Extract(context.Background(), t.TempDir(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "members without a path are not extracted")
}

func TestExtract_DecodesPayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.wad")
	members := sampleMembers()
	writeV3(t, path, members)

	var known []string
	for _, m := range members {
		known = append(known, m.path)
	}
	archive, err := NewOpener(NewMapResolver(known...), nil).Open(context.Background(), path, ports.OpenOptions{Resolve: true})
	require.NoError(t, err)

	dest := t.TempDir()
	n, err := archive.Extract(context.Background(), dest, false)
	require.NoError(t, err)
	assert.Equal(t, len(members), n)

	for _, m := range members {
		data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(m.path)))
		require.NoError(t, err, m.path)
		assert.Equal(t, m.data, data, m.path)
	}
}

func TestExtract_RestrictAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.wad")
	members := sampleMembers()
	writeV3(t, path, members)

	archive, err := NewOpener(NewMapResolver(members[0].path, members[1].path), nil).Open(context.Background(), path, ports.OpenOptions{Resolve: true})
	require.NoError(t, err)

	dest := t.TempDir()
	existing := filepath.Join(dest, "plugins", "rcp-fe", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	restricted := archive.Restrict(archive.Members()[:2])
	assert.Len(t, restricted.Members(), 2)

	n, err := restricted.Extract(context.Background(), dest, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	data, _ := os.ReadFile(existing)
	assert.Equal(t, "old", string(data))

	n, err = restricted.Extract(context.Background(), dest, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	data, _ = os.ReadFile(existing)
	assert.Equal(t, "<html>home</html>", string(data))

	entries, err := os.ReadDir(filepath.Join(dest, "plugins", "rcp-fe"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only restricted members are extracted")
}

func TestOpen_Version1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.wad")
	members := []testMember{
		{path: "data/a.txt", data: []byte("alpha")},
		{path: "data/b.txt", data: []byte("beta")},
	}
	writeV1(t, path, members)

	archive, err := NewOpener(NewMapResolver("data/a.txt", "data/b.txt"), nil).Open(context.Background(), path, ports.OpenOptions{Resolve: true})
	require.NoError(t, err)

	require.Len(t, archive.Members(), 2)
	assert.Equal(t, "data/a.txt", archive.Members()[0].Path)
	assert.Equal(t, xxhash.Sum64([]byte("alpha")), archive.Members()[0].ContentHash)

	dest := t.TempDir()
	_, err = archive.Extract(context.Background(), dest, false)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dest, "data", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestOpen_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wad")
	require.NoError(t, os.WriteFile(path, []byte("not a wad file at all"), 0o644))

	_, err := NewOpener(nil, nil).Open(context.Background(), path, ports.OpenOptions{})
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestOpen_CorruptHeader(t *testing.T) {
	le := binary.LittleEndian

	t.Run("entry count beyond file size", func(t *testing.T) {
		header := make([]byte, headerSizeV3)
		copy(header, "RW")
		header[2] = 3
		le.PutUint32(header[268:], 0xFFFFFFFF)

		path := filepath.Join(t.TempDir(), "huge.wad")
		require.NoError(t, os.WriteFile(path, header, 0o644))

		_, err := NewOpener(nil, nil).Open(context.Background(), path, ports.OpenOptions{Resolve: true})
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})

	t.Run("payload beyond file size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "truncated.wad")
		writeV3(t, path, sampleMembers())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		// first entry claims a 4 GiB payload
		le.PutUint32(data[headerSizeV3+12:], 0xFFFFFFF0)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		_, err = NewOpener(nil, nil).Open(context.Background(), path, ports.OpenOptions{Resolve: true})
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})

	t.Run("payload cut off", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cut.wad")
		writeV1(t, path, []testMember{{path: "a.txt", data: []byte("some content")}})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

		_, err = NewOpener(nil, nil).Open(context.Background(), path, ports.OpenOptions{})
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})
}

func TestDecode_CapsSizeHint(t *testing.T) {
	assert.Equal(t, maxSizeHint, sizeHint(entry{Size: 0xFFFFFFFF}))
	assert.Equal(t, 12, sizeHint(entry{Size: 12}))

	// a lying size field does not change the decoded output
	stored := compress(t, kindZstd, []byte("payload"))
	data, err := decode(entry{Kind: kindZstd, Size: 0xFFFFFFFF}, stored)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestExtract_ReplacesInterruptedWrite(t *testing.T) {
	src := filepath.Join(t.TempDir(), "assets.wad")
	writeV3(t, src, []testMember{{path: "data/a.txt", data: []byte("complete content"), kind: kindZstd}})

	archive, err := NewOpener(NewMapResolver("data/a.txt"), nil).Open(context.Background(), src, ports.OpenOptions{Resolve: true})
	require.NoError(t, err)

	// leftover of a previous run killed while writing data/a.txt
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "data"), 0o755))
	leftover := filepath.Join(dest, "data", ".tmp-a.txt-123456")
	require.NoError(t, os.WriteFile(leftover, []byte("compl"), 0o644))

	n, err := archive.Extract(context.Background(), dest, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dest, "data", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "complete content", string(data))

	fi, err := os.Stat(filepath.Join(dest, "data", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(dest, "data"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	// the stale leftover is not touched here; only the extracted member is new
	assert.ElementsMatch(t, []string{"a.txt", ".tmp-a.txt-123456"}, names)
}

func TestGuessExtension(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{pngData, "png"},
		{[]byte("DDS |...."), "dds"},
		{[]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{[]byte("  {\"key\": true}"), "json"},
		{[]byte("r3d2Mesh...."), "scb"},
		{[]byte{0x01, 0x02}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, guessExtension(tt.data), "%q", tt.data)
	}
}

func TestMapResolver(t *testing.T) {
	r := NewMapResolver("Data/Final/Champions/Ahri.wad.client")
	got, err := r.Resolve(context.Background(), []uint64{HashPath("data/final/champions/ahri.wad.client"), 42})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{
		HashPath("data/final/champions/ahri.wad.client"): "data/final/champions/ahri.wad.client",
	}, got)
}
