// Package sqlite registers the pure-Go SQLite backend used in local mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
)

func init() {
	database.Register(database.DriverSQLite, NewConnection)
}

const memoryPath = ":memory:"

// pragmas applied to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// resolvePath picks the database file: explicit SQLitePath, then a sqlite://
// or file: URL, then the per-user default.
func resolvePath(cfg database.Config) string {
	if cfg.SQLitePath != "" {
		return cfg.SQLitePath
	}
	switch {
	case strings.HasPrefix(cfg.URL, "sqlite://"):
		return strings.TrimPrefix(cfg.URL, "sqlite://")
	case strings.HasPrefix(cfg.URL, "file:"):
		return strings.TrimPrefix(cfg.URL, "file:")
	case cfg.URL != "" && database.DetectDriver(cfg.URL) == database.DriverSQLite:
		return cfg.URL
	}
	return database.DefaultSQLitePath()
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// querier is the part of *sql.DB and *sql.Tx the executor needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor struct {
	q querier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	return e.q.ExecContext(ctx, query, args...)
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRowContext(ctx, query, args...)
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Connection is a SQLite database limited to a single open connection.
type Connection struct {
	executor
	db *sql.DB
}

// NewConnection opens (creating if needed) the SQLite database.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := resolvePath(cfg)
	if path != memoryPath {
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; also keeps an in-memory database alive between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}
	return &Connection{executor: executor{q: db}, db: db}, nil
}

func (c *Connection) Driver() database.Driver { return database.DriverSQLite }

func (c *Connection) Close() error { return c.db.Close() }

func (c *Connection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &transaction{executor: executor{q: tx}, tx: tx}, nil
}

type transaction struct {
	executor
	tx *sql.Tx
}

func (t *transaction) Commit(context.Context) error { return t.tx.Commit() }

func (t *transaction) Rollback(context.Context) error { return t.tx.Rollback() }
