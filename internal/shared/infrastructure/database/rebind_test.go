package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	query := "SELECT id FROM schedule_blocks WHERE professional_id = ? AND reason <> '?' AND block_date = ?"

	assert.Equal(t, query, Rebind(DriverSQLite, query))
	assert.Equal(t,
		"SELECT id FROM schedule_blocks WHERE professional_id = $1 AND reason <> '?' AND block_date = $2",
		Rebind(DriverPostgres, query))
}
