package wad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidArchive is returned for files that are not WAD archives
var ErrInvalidArchive = errors.New("invalid WAD archive")

// Header sizes per major version
const (
	headerSizeV1 = 12
	headerSizeV2 = 104
	headerSizeV3 = 272

	entrySizeV1 = 24
	entrySizeV3 = 32
)

// Payload kinds, stored in the low nibble of the entry type byte
const (
	kindRaw         = 0
	kindGzip        = 1
	kindRedirection = 2
	kindZstd        = 3
	kindZstdChunked = 4
)

// entry is one table-of-contents record
type entry struct {
	PathHash       uint64
	Offset         uint32
	CompressedSize uint32
	Size           uint32
	Kind           uint8
	Duplicate      bool
	Checksum       uint64
}

// readTOC parses the header and the table of contents of a WAD archive of
// size bytes. The table and every entry payload must lie within the file.
func readTOC(r io.ReaderAt, size int64) (major uint8, entries []entry, err error) {
	var head [headerSizeV3]byte
	n, err := r.ReadAt(head[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, nil, err
	}
	if n < 4 || head[0] != 'R' || head[1] != 'W' {
		return 0, nil, fmt.Errorf("%w: bad magic", ErrInvalidArchive)
	}

	major = head[2]
	le := binary.LittleEndian

	var tocOffset int64
	var entrySize, count int
	switch major {
	case 1:
		if n < headerSizeV1 {
			return 0, nil, fmt.Errorf("%w: truncated header", ErrInvalidArchive)
		}
		tocOffset = int64(le.Uint16(head[4:]))
		entrySize = int(le.Uint16(head[6:]))
		count = int(le.Uint32(head[8:]))
	case 2:
		if n < headerSizeV2 {
			return 0, nil, fmt.Errorf("%w: truncated header", ErrInvalidArchive)
		}
		// 84 bytes of signature and an 8-byte checksum precede the TOC fields
		tocOffset = int64(le.Uint16(head[96:]))
		entrySize = int(le.Uint16(head[98:]))
		count = int(le.Uint32(head[100:]))
	case 3:
		if n < headerSizeV3 {
			return 0, nil, fmt.Errorf("%w: truncated header", ErrInvalidArchive)
		}
		tocOffset = headerSizeV3
		entrySize = entrySizeV3
		count = int(le.Uint32(head[268:]))
	default:
		return 0, nil, fmt.Errorf("%w: unsupported version %d.%d", ErrInvalidArchive, head[2], head[3])
	}

	if (major == 1 && entrySize < entrySizeV1) || (major > 1 && entrySize < entrySizeV3) {
		return 0, nil, fmt.Errorf("%w: entry size %d", ErrInvalidArchive, entrySize)
	}

	if tocOffset+int64(entrySize)*int64(count) > size {
		return 0, nil, fmt.Errorf("%w: table of contents exceeds file size", ErrInvalidArchive)
	}

	buf := make([]byte, entrySize*count)
	if _, err := r.ReadAt(buf, tocOffset); err != nil {
		return 0, nil, fmt.Errorf("%w: truncated table of contents: %v", ErrInvalidArchive, err)
	}

	entries = make([]entry, count)
	for i := range entries {
		b := buf[i*entrySize:]
		e := entry{
			PathHash:       le.Uint64(b[0:]),
			Offset:         le.Uint32(b[8:]),
			CompressedSize: le.Uint32(b[12:]),
			Size:           le.Uint32(b[16:]),
		}
		if major == 1 {
			e.Kind = uint8(le.Uint32(b[20:]))
		} else {
			e.Kind = b[20] & 0x0f
			e.Duplicate = b[21] != 0
			e.Checksum = le.Uint64(b[24:])
		}
		if int64(e.Offset)+int64(e.CompressedSize) > size {
			return 0, nil, fmt.Errorf("%w: entry %016x exceeds file size", ErrInvalidArchive, e.PathHash)
		}
		entries[i] = e
	}
	return major, entries, nil
}
