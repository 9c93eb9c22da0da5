package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // driver registration
)

const (
	currentSchemaVersion = 2
)

// Store represents the catalog's persistent state
type Store struct {
	db *sql.DB
}

// OpenOptions tunes how the catalog database is opened.
type OpenOptions struct {
	NetworkOptimized bool // pragmas for a database file on a network share
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions is Open with explicit tuning.
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	// Pragmas ride the DSN so every new connection gets them. Cascade
	// deletes need foreign_keys on; WAL and the busy timeout keep
	// concurrent readers and writers from blocking each other.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer and the pragmas
	// above already let readers coexist with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if opts.NetworkOptimized {
		if err := store.applyNetworkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply network pragmas: %w", err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// applyNetworkPragmas trades durability settings for fewer round-trips
// when the database file sits on a network share
func (s *Store) applyNetworkPragmas() error {
	pragmas := []string{
		// NORMAL still survives application crashes under WAL
		"PRAGMA synchronous = NORMAL",

		// Temp tables stay off the share
		"PRAGMA temp_store = MEMORY",

		// 64MB page cache
		"PRAGMA cache_size = -64000",

		// 8KB pages; only effective before the first table exists
		"PRAGMA page_size = 8192",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for queries the store does not wrap
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQLiteVersion reports the linked SQLite library version
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// CheckFTS5 verifies the driver was built with the FTS5 extension the
// search index depends on
func CheckFTS5() error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open probe database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec("CREATE VIRTUAL TABLE fts_probe USING fts5(content)")
	if err != nil {
		return fmt.Errorf("fts5 unavailable: %w", err)
	}
	return nil
}

// JournalMode returns the database's active journal mode
func (s *Store) JournalMode() (string, error) {
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		return "", fmt.Errorf("failed to read journal mode: %w", err)
	}
	return mode, nil
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// SchemaVersion returns the schema version the database is at
func (s *Store) SchemaVersion() (int, error) {
	return s.getSchemaVersion()
}

// migrate brings the schema up to currentSchemaVersion
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	// All pending versions apply in one transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// v1: catalog, media, step tracker
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// v2: review pipeline tables and the full-text index
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion reads the highest applied version; a database without
// the version table is at version 0
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction runs fn inside a transaction, committing only when fn
// returns nil
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so entity methods can run
// inside or outside an explicit transaction
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// timestampedTables are the tables whose rows carry an updated_at column.
// Every UPDATE against one of them must flow through touchExec so the
// refresh is applied uniformly instead of at individual call sites.
var timestampedTables = map[string]bool{
	"collections":         true,
	"dublin_core_records": true,
	"processing_sessions": true,
}

// touchExec runs UPDATE <table> SET <set> WHERE <where>, appending the
// updated_at refresh for tables that carry the column
func touchExec(e execer, table, set, where string, args ...any) (sql.Result, error) {
	if timestampedTables[table] {
		set += ", updated_at = CURRENT_TIMESTAMP"
	}
	return e.Exec("UPDATE "+table+" SET "+set+" WHERE "+where, args...)
}
