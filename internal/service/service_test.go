package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tabletop-companion/internal/repository/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	goose.SetLogger(goose.NopLogger())

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return db
}

func newTestServices(t *testing.T) (UserService, CharacterService) {
	t.Helper()
	db := openTestDB(t)
	users := NewUserService(sqlite.NewUserRepository(db), WithBcryptCost(bcrypt.MinCost))
	characters := NewCharacterService(sqlite.NewCharacterRepository(db))
	return users, characters
}
