package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	goose.SetLogger(goose.NopLogger())

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := setupDB(t)

	for _, table := range []string{"users", "characters"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	db := setupDB(t)

	var enabled int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
}
