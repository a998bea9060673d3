// Package store persists the joined genotype/annotation dataset and the
// import cursor in DuckDB. It is the single source of truth for the viewer
// and supports point lookup by rsid plus full sequential scan.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages the DuckDB connection holding entries and cursors.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			rsid VARCHAR PRIMARY KEY,
			chrom VARCHAR,
			pos BIGINT,
			genotype VARCHAR,
			status VARCHAR,
			description VARCHAR,
			matched_genotype VARCHAR,
			magnitude DOUBLE,
			has_magnitude BOOLEAN,
			matched_summary VARCHAR,
			orientation VARCHAR,
			fetched_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS genotype_summaries (
			rsid VARCHAR,
			genotype VARCHAR,
			magnitude DOUBLE,
			has_magnitude BOOLEAN,
			description VARCHAR,
			PRIMARY KEY (rsid, genotype)
		)`,
		`CREATE TABLE IF NOT EXISTS cursors (
			dataset_key VARCHAR PRIMARY KEY,
			position BIGINT,
			seen BIGINT,
			annotated BIGINT,
			notfound BIGINT,
			indexed BOOLEAN,
			file_size BIGINT,
			file_mtime_ns BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// FileFingerprint holds stat-based identity for an input file, used to
// detect that a dataset's source file changed between runs.
type FileFingerprint struct {
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{Size: info.Size(), ModTime: info.ModTime()}, nil
}
