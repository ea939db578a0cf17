package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"patchlink/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// resolveChunk bounds the number of bound parameters per query
const resolveChunk = 500

// HashStore implements ports.HashResolver using SQLite
type HashStore struct {
	db     *sql.DB
	dbPath string
}

// Ensure HashStore implements HashResolver
var _ ports.HashResolver = (*HashStore)(nil)

// NewHashStore creates a new SQLite hash store
func NewHashStore() *HashStore {
	return &HashStore{}
}

// DefaultPath returns the default database location under the XDG data directory
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "patchlink", "hashes.db")
}

// Open opens (creating if needed) the database at dbPath
func (s *HashStore) Open(dbPath string) error {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}
	s.dbPath = dbPath

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Pragmas + schema in single batch
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS hashes (
			hash INTEGER PRIMARY KEY,
			path TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *HashStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *HashStore) Path() string {
	return s.dbPath
}

// Count returns the number of known hashes
func (s *HashStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hashes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count hashes: %w", err)
	}
	return n, nil
}

// Resolve returns the stored paths of hashes; unknown hashes are omitted
func (s *HashStore) Resolve(ctx context.Context, hashes []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(hashes))
	for start := 0; start < len(hashes); start += resolveChunk {
		end := min(start+resolveChunk, len(hashes))
		chunk := hashes[start:end]

		args := make([]any, len(chunk))
		for i, h := range chunk {
			args[i] = int64(h)
		}
		query := "SELECT hash, path FROM hashes WHERE hash IN (?" + strings.Repeat(",?", len(chunk)-1) + ")"

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve hashes: %w", err)
		}
		for rows.Next() {
			var h int64
			var p string
			if err := rows.Scan(&h, &p); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan hash: %w", err)
			}
			out[uint64(h)] = p
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve hashes: %w", err)
		}
	}
	return out, nil
}
