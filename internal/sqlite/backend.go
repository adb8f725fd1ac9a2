package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// timeFormat is the storage layout for timestamps. Nanosecond precision
// keeps the per-lot event ordering stable across round trips.
const timeFormat = time.RFC3339Nano

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface on a SQLite database file.
type Backend struct {
	mu     sync.RWMutex
	opened bool
	config types.Config
	db     *sql.DB
}

// NewBackend creates a new SQLite backend instance. The backend is not
// usable until Open is called with a Config.
func NewBackend() *Backend {
	return &Backend{}
}

// Open initializes the backend: validates the config, creates the data
// directory if needed, opens the database file, and applies the schema.
// Returns ErrAlreadyOpen if called while already open.
func (b *Backend) Open(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opened {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tracelot.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// Serialized access through a single connection keeps SQLite's
	// writer semantics predictable under concurrent callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.opened = true
	return nil
}

// Close releases database resources. Idempotent: closing a closed
// backend succeeds.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opened {
		return nil
	}
	b.opened = false
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	return nil
}

// conn returns the database handle, or ErrStoreClosed when the backend
// is not open.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.opened {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

// newID generates a UUID v7, falling back to v4 when the monotonic
// source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
