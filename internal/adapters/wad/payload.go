package wad

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxSizeHint caps the buffer preallocated from an entry's declared size
const maxSizeHint = 64 << 20

// zstd decoder shared by all archives; DecodeAll is safe for concurrent use
var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// readRaw returns the stored bytes of an entry
func readRaw(r io.ReaderAt, e entry) ([]byte, error) {
	buf := make([]byte, e.CompressedSize)
	if _, err := r.ReadAt(buf, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("failed to read entry %016x: %w", e.PathHash, err)
	}
	return buf, nil
}

// decode returns the uncompressed payload of an entry.
// Redirections are returned as stored.
func decode(e entry, raw []byte) ([]byte, error) {
	switch e.Kind {
	case kindRaw, kindRedirection:
		return raw, nil
	case kindGzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %016x: %w", e.PathHash, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case kindZstd:
		return zstdDecoder.DecodeAll(raw, make([]byte, 0, sizeHint(e)))
	case kindZstdChunked:
		// leading subchunks may be stored uncompressed
		i := bytes.Index(raw, zstdMagic)
		if i < 0 {
			return raw, nil
		}
		return zstdDecoder.DecodeAll(raw[i:], append(make([]byte, 0, sizeHint(e)), raw[:i]...))
	default:
		return nil, fmt.Errorf("failed to decode entry %016x: unknown kind %d", e.PathHash, e.Kind)
	}
}

func sizeHint(e entry) int {
	return int(min(e.Size, maxSizeHint))
}
