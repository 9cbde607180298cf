// Package database abstracts the PostgreSQL and SQLite backends behind one
// Connection interface. Driver packages register themselves on import.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	// Driver forces a backend. Empty means detect from URL.
	Driver Driver
	// URL is a postgres:// DSN, or a sqlite:// or file: location.
	URL string
	// SQLitePath overrides the SQLite file. Defaults to ~/.salonops/data.db.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a driver available to NewConnection.
func Register(d Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[d] = open
}

// NewConnection opens a connection with the configured or detected driver.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	openersMu.RLock()
	open := openers[driver]
	openersMu.RUnlock()
	if open == nil {
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is the per-user database file used in local mode.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".salonops", "data.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
