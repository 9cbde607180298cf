package database

import "context"

// Row is a single result row. pgx.Row and *sql.Row both satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports the effect of an Exec. Inserts that need generated keys use
// RETURNING instead of LastInsertId so both drivers behave the same.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs queries. Repositories depend on it so the same code works
// against a connection or an open transaction.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that must be committed or rolled back.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open database handle for one driver.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Driver() Driver
	Close() error
}
