// Package db keeps the plan history in an in-memory SQLite database that is
// loaded from and persisted to a file on disk.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/common/logs"
	"github.com/bitswalk/kforge/src/common/paths"
	"github.com/bitswalk/kforge/src/kforge/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the db package and its migrations
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
		migrations.SetLogger(l)
	}
}

// Database wraps the SQLite connection with persistence capabilities
type Database struct {
	db           *sql.DB
	persistPath  string
	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// Config holds the database configuration
type Config struct {
	// PersistPath is the file the database is saved to on shutdown.
	// Empty keeps the history in memory only.
	PersistPath string

	// LoadOnStart loads existing rows from PersistPath when it exists
	LoadOnStart bool
}

// DefaultConfig stores the history under the user data directory
func DefaultConfig() Config {
	return Config{
		PersistPath: filepath.Join(paths.DataDir(), "history.db"),
		LoadOnStart: true,
	}
}

// New opens an in-memory database, applies migrations and loads the
// persisted history when configured to
func New(cfg Config) (*Database, error) {
	persistPath := paths.Expand(cfg.PersistPath)

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.ErrDatabaseConnection.WithCause(err)
	}
	// every pooled connection to :memory: would be a separate database
	sqlDB.SetMaxOpenConns(1)

	database := &Database{
		db:          sqlDB,
		persistPath: persistPath,
	}

	if err := migrations.NewRunner(sqlDB).Run(); err != nil {
		sqlDB.Close()
		return nil, errors.ErrDatabaseConnection.WithMessage("Failed to initialize schema").WithCause(err)
	}

	if cfg.LoadOnStart && persistPath != "" && paths.IsFile(persistPath) {
		if err := database.LoadFromDisk(); err != nil {
			log.Warn("Failed to load plan history from disk, starting empty", "path", persistPath, "error", err)
		}
	}

	return database, nil
}

// DB returns the underlying sql.DB for direct queries
func (d *Database) DB() *sql.DB {
	return d.db
}

// PersistPath returns the file the database is saved to
func (d *Database) PersistPath() string {
	return d.persistPath
}

// Shutdown persists the database to disk and closes the connection
func (d *Database) Shutdown() error {
	var shutdownErr error

	d.shutdownOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.persistPath != "" {
			if err := d.persistToDisk(); err != nil {
				shutdownErr = fmt.Errorf("failed to persist database: %w", err)
			}
		}

		if err := d.db.Close(); err != nil {
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%v; also failed to close database: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("failed to close database: %w", err)
			}
		}
	})

	return shutdownErr
}

// SaveToDisk persists the database without closing it
func (d *Database) SaveToDisk() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.persistToDisk()
}

// persistToDisk writes a temp file with VACUUM INTO and renames it over
// the target
func (d *Database) persistToDisk() error {
	if d.persistPath == "" {
		return nil
	}

	if err := paths.EnsureDir(d.persistPath); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", d.persistPath, err)
	}

	tempPath := d.persistPath + ".tmp"
	os.Remove(tempPath)

	if _, err := d.db.Exec(fmt.Sprintf("VACUUM INTO %s", quote(tempPath))); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to vacuum database to disk: %w", err)
	}

	if err := os.Rename(tempPath, d.persistPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename database file: %w", err)
	}

	log.Debug("Persisted plan history", "path", d.persistPath)
	return nil
}

// LoadFromDisk copies persisted rows into memory. Columns missing from an
// older file keep their defaults.
func (d *Database) LoadFromDisk() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.persistPath == "" {
		return nil
	}

	if _, err := d.db.Exec(fmt.Sprintf("ATTACH DATABASE %s AS disk_db", quote(d.persistPath))); err != nil {
		return fmt.Errorf("failed to attach disk database: %w", err)
	}
	defer d.db.Exec("DETACH DATABASE disk_db")

	if !d.tableExistsInDiskDB("plans") {
		return nil
	}

	cols, err := d.sharedColumns("plans")
	if err != nil {
		return err
	}
	list := strings.Join(cols, ", ")
	query := fmt.Sprintf("INSERT OR REPLACE INTO plans (%s) SELECT %s FROM disk_db.plans", list, list)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to copy plans from disk: %w", err)
	}
	return nil
}

// tableExistsInDiskDB checks if a table exists in the attached disk_db
func (d *Database) tableExistsInDiskDB(tableName string) bool {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM disk_db.sqlite_master
		WHERE type='table' AND name=?
	`, tableName).Scan(&count)
	return err == nil && count > 0
}

// sharedColumns lists the columns of table present both in memory and on disk
func (d *Database) sharedColumns(table string) ([]string, error) {
	onDisk, err := d.columns("disk_db", table)
	if err != nil {
		return nil, err
	}
	inMemory, err := d.columns("main", table)
	if err != nil {
		return nil, err
	}

	var shared []string
	for _, c := range inMemory {
		for _, o := range onDisk {
			if c == o {
				shared = append(shared, c)
				break
			}
		}
	}
	return shared, nil
}

func (d *Database) columns(schema, table string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf("PRAGMA %s.table_info(%s)", schema, table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
