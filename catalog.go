// Package catalog implements the relational store for a local photo
// index: schema, transactions, and CRUD for images, the hierarchical tag
// graph, image-tag edges, and duplicate groups.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// CurrentSchemaVersion is the schema version this binary writes and
// reads. Opening a catalog with a higher stored version is fatal.
const CurrentSchemaVersion = 1

// Catalog wraps a single-writer relational store at a known path. Its
// parent directory is the catalog root that relative image paths are
// resolved against.
type Catalog struct {
	db       *sql.DB
	path     string
	readOnly bool
	log      logrus.FieldLogger
}

// Options configures Open/Create beyond their required arguments.
type Options struct {
	// ReadOnly opens the catalog without permitting writes.
	ReadOnly bool
	// BusyTimeoutMS bounds how long a writer waits for the SQLite file
	// lock before failing; see spec §5's default 5s busy-timeout.
	BusyTimeoutMS int
	// Log receives structured warnings (tag tie-breaks, schema notes).
	// Defaults to logrus.StandardLogger() when nil.
	Log logrus.FieldLogger
}

func (o *Options) busyTimeout() int {
	if o == nil || o.BusyTimeoutMS <= 0 {
		return 5000
	}
	return o.BusyTimeoutMS
}

func (o *Options) logger() logrus.FieldLogger {
	if o == nil || o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Create creates the schema at a fresh path and seeds the default tag
// tree. It fails if the path already exists.
func Create(path string, opts *Options) (*Catalog, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("catalog: path already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog: stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, opts.busyTimeout())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}

	c := &Catalog{db: db, path: path, log: opts.logger()}
	if err := c.initSchema(); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return c, nil
}

// Open opens an existing catalog, reading and validating the schema
// version row.
func Open(path string, opts *Options) (*Catalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog: does not exist: %s", path)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, opts.busyTimeout())
	if opts != nil && opts.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d&_foreign_keys=on", path, opts.busyTimeout())
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}

	c := &Catalog{db: db, path: path, log: opts.logger()}
	if opts != nil {
		c.readOnly = opts.ReadOnly
	}

	version, err := c.schemaVersion()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: reading schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("catalog: schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}
	if version < CurrentSchemaVersion {
		if err := c.migrateForward(version); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: migration from v%d failed: %w", version, err)
		}
	}

	return c, nil
}

// Close releases the handle. Idempotent.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Path returns the catalog file path.
func (c *Catalog) Path() string { return c.path }

// Root returns the catalog root directory (the parent of Path), against
// which every Image.FilePath is resolved.
func (c *Catalog) Root() string { return filepath.Dir(c.path) }

// DB exposes the underlying handle for the Query Compiler's escape
// hatch (ExecuteQuery) and for callers that need raw access.
func (c *Catalog) DB() *sql.DB { return c.db }

// migrateForward is presently a stub: v1 is the only schema version
// this binary has ever produced, so there is nothing to migrate. Future
// versions add cases here rather than rewriting Open's contract.
func (c *Catalog) migrateForward(from int) error {
	switch from {
	default:
		return fmt.Errorf("no migration path from schema version %d", from)
	}
}

func (c *Catalog) schemaVersion() (int, error) {
	var v int
	err := c.db.QueryRow(`SELECT value FROM catalog_meta WHERE key = 'schema_version'`).Scan(&v)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// NewCorrelationID returns a UUID used only for in-process correlation
// (scan sessions, dedup runs) - it is never stored as row identity,
// since every table in this schema keys on a plain integer id.
func NewCorrelationID() string {
	return uuid.New().String()
}

// runInTx is the Store's scoped-transaction helper: commit on normal
// return, rollback on any error or panic.
func (c *Catalog) runInTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}
