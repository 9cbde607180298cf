package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database/sqlite"
)

func openMemory(t *testing.T) database.Connection {
	t.Helper()
	conn, err := database.NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE bookings (id TEXT PRIMARY KEY, status TEXT)`)
	require.NoError(t, err)
	return conn
}

func insert(ctx context.Context, conn database.Connection, id string) error {
	_, err := database.ExecutorFromContext(ctx, conn).Exec(ctx,
		`INSERT INTO bookings (id, status) VALUES (?, 'confirmada')`, id)
	return err
}

func exists(t *testing.T, conn database.Connection, id string) bool {
	t.Helper()
	var got string
	err := conn.QueryRow(context.Background(), `SELECT id FROM bookings WHERE id = ?`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestInTx_Commits(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	err := database.InTx(ctx, conn, func(txCtx context.Context) error {
		return insert(txCtx, conn, "c1")
	})

	require.NoError(t, err)
	assert.True(t, exists(t, conn, "c1"))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	conn := openMemory(t)
	boom := errors.New("boom")

	err := database.InTx(context.Background(), conn, func(txCtx context.Context) error {
		require.NoError(t, insert(txCtx, conn, "c2"))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, exists(t, conn, "c2"))
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	conn := openMemory(t)

	assert.Panics(t, func() {
		_ = database.InTx(context.Background(), conn, func(txCtx context.Context) error {
			_ = insert(txCtx, conn, "c3")
			panic("kaboom")
		})
	})
	assert.False(t, exists(t, conn, "c3"))
}

func TestInTx_JoinsOuterTransaction(t *testing.T) {
	conn := openMemory(t)
	outerErr := errors.New("outer failed")

	err := database.InTx(context.Background(), conn, func(outer context.Context) error {
		inner := database.InTx(outer, conn, func(innerCtx context.Context) error {
			return insert(innerCtx, conn, "c4")
		})
		require.NoError(t, inner)
		return outerErr
	})

	assert.ErrorIs(t, err, outerErr)
	assert.False(t, exists(t, conn, "c4"), "inner work must roll back with the outer transaction")
}
