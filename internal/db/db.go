package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quantmind-br/pydeb/internal/core"
)

// ErrNotFound is returned when no build matches the requested id
var ErrNotFound = errors.New("build not found")

// DB is the build history store, with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New opens (creating if needed) the build history at dbPath
func New(ctx context.Context, dbPath string) (*DB, error) {
	// Connection string with pragmas
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Path returns the database file
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

const schemaVersion = 1

// initSchema creates the schema if it doesn't exist and records its version
func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS builds (
    build_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    package TEXT NOT NULL,
    version TEXT NOT NULL,
    build_date DATETIME DEFAULT CURRENT_TIMESTAMP,
    orig_tarball TEXT NOT NULL,
    dsc_file TEXT NOT NULL,
    dist_dir TEXT NOT NULL,
    expanded_dir TEXT,
    metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_builds_source ON builds(source);
CREATE INDEX IF NOT EXISTS idx_builds_date ON builds(build_date);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);
	`

	if _, err := db.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	_, err := db.write.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_migrations (version, description) VALUES (?, ?)",
		schemaVersion, "build history")
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return nil
}

const selectColumns = `build_id, source, package, version, build_date, orig_tarball, dsc_file, dist_dir, expanded_dir, metadata`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(s scanner) (*core.BuildRecord, error) {
	var (
		rec          core.BuildRecord
		expandedDir  sql.NullString
		metadataJSON sql.NullString
	)
	err := s.Scan(
		&rec.BuildID,
		&rec.Source,
		&rec.Package,
		&rec.Version,
		&rec.BuildDate,
		&rec.OrigTarball,
		&rec.DscFile,
		&rec.DistDir,
		&expandedDir,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	rec.ExpandedDir = expandedDir.String
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

// Create records a finished build
func (db *DB) Create(ctx context.Context, rec *core.BuildRecord) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
INSERT INTO builds (build_id, source, package, version, build_date, orig_tarball, dsc_file, dist_dir, expanded_dir, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.write.ExecContext(ctx, query,
		rec.BuildID,
		rec.Source,
		rec.Package,
		rec.Version,
		rec.BuildDate,
		rec.OrigTarball,
		rec.DscFile,
		rec.DistDir,
		rec.ExpandedDir,
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	return nil
}

// Get retrieves a build by id
func (db *DB) Get(ctx context.Context, buildID string) (*core.BuildRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM builds WHERE build_id = ?`

	rec, err := scanBuild(db.read.QueryRowContext(ctx, query, buildID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, buildID)
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	return rec, nil
}

// List returns builds newest first, optionally restricted to one source
// package. limit <= 0 means no limit.
func (db *DB) List(ctx context.Context, source string, limit int) ([]core.BuildRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM builds`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY build_date DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []core.BuildRecord
	for rows.Next() {
		rec, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return builds, nil
}

// Delete removes a build record
func (db *DB) Delete(ctx context.Context, buildID string) error {
	result, err := db.write.ExecContext(ctx, "DELETE FROM builds WHERE build_id = ?", buildID)
	if err != nil {
		return fmt.Errorf("delete build: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, buildID)
	}

	return nil
}
