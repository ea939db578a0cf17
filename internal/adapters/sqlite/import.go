package sqlite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Import loads a hash list of "<hex-hash> <path>" lines inside a single
// transaction and returns the number of entries stored. Blank lines and
// lines starting with '#' are skipped; paths are lower-cased. An existing
// hash is replaced.
func (s *HashStore) Import(ctx context.Context, r io.Reader) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO hashes (hash, path) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n, lineno := 0, 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		hexHash, path, ok := strings.Cut(line, " ")
		path = strings.TrimSpace(path)
		if !ok || path == "" {
			return 0, fmt.Errorf("line %d: expected \"<hash> <path>\"", lineno)
		}
		h, err := strconv.ParseUint(hexHash, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid hash %q: %w", lineno, hexHash, err)
		}

		if _, err := stmt.ExecContext(ctx, int64(h), strings.ToLower(path)); err != nil {
			return 0, fmt.Errorf("failed to insert hash: %w", err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read hash list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit hashes: %w", err)
	}
	return n, nil
}
