package migrations

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database/sqlite"
)

func TestSplitStatements(t *testing.T) {
	script := `-- blocks
CREATE TABLE a (id TEXT);

CREATE INDEX idx_a ON a (id);
`
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx_a ON a (id)"}, splitStatements(script))
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	fsys := fstest.MapFS{
		"sql/000002_index.up.sql":   {Data: []byte("CREATE INDEX IF NOT EXISTS idx_t ON t (name);")},
		"sql/000001_table.up.sql":   {Data: []byte("CREATE TABLE IF NOT EXISTS t (id TEXT PRIMARY KEY, name TEXT);")},
		"sql/000001_table.down.sql": {Data: []byte("DROP TABLE t;")},
	}

	require.NoError(t, Run(ctx, conn, fsys, "sql"))
	require.NoError(t, Run(ctx, conn, fsys, "sql"), "migrations are idempotent")

	_, err = conn.Exec(ctx, "INSERT INTO t (id, name) VALUES (?, ?)", "1", "x")
	assert.NoError(t, err)
}
