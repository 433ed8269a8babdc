package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop-companion/internal/domain"
	"tabletop-companion/internal/repository"
)

var characterRowColumns = []string{"id", "user_id", "name", "class", "level", "details", "created_at", "updated_at"}

func TestCharacterRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO characters`).
		WithArgs(int64(3), "Thorin", "Fighter", 5, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	character := &domain.Character{UserID: 3, Name: "Thorin", Class: "Fighter", Level: 5, Details: domain.Attributes{"strength": 16}}
	id, err := NewCharacterRepository(mock).Create(context.Background(), character)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.Equal(t, int64(11), character.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCharacterRepository_GetOwned(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantGold  int
		wantErr   error
	}{
		{
			name: "owned row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				now := time.Now().UTC()
				mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
					WithArgs(int64(11), int64(3)).
					WillReturnRows(pgxmock.NewRows(characterRowColumns).
						AddRow(int64(11), int64(3), "Thorin", "Fighter", 5, []byte(`{"race":"Dwarf"}`), now, now))
			},
		},
		{
			name: "large integer in details",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				now := time.Now().UTC()
				mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
					WithArgs(int64(11), int64(3)).
					WillReturnRows(pgxmock.NewRows(characterRowColumns).
						AddRow(int64(11), int64(3), "Thorin", "Fighter", 5, []byte(`{"race":"Dwarf","gold":9007199254740993}`), now, now))
			},
			wantGold: 9007199254740993,
		},
		{
			name: "foreign or missing row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
					WithArgs(int64(11), int64(3)).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewCharacterRepository(mock).GetOwned(context.Background(), 11, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Thorin", got.Name)
				assert.Equal(t, "Dwarf", got.Details["race"])
				if tt.wantGold != 0 {
					assert.Equal(t, tt.wantGold, got.Details["gold"])
				} else {
					assert.NotContains(t, got.Details, "gold")
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCharacterRepository_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(characterRowColumns).
			AddRow(int64(2), int64(3), "Newer", "Wizard", 2, []byte(`{}`), now, now).
			AddRow(int64(1), int64(3), "Older", "Cleric", 1, []byte(`{}`), now.Add(-time.Hour), now))

	list, err := NewCharacterRepository(mock).ListByOwner(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Name)
	assert.Equal(t, "Older", list[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCharacterRepository_UpdateOwned(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		execErr error
		wantErr error
		errMsg  string
	}{
		{name: "updated", rows: 1},
		{name: "not owned", rows: 0, wantErr: repository.ErrNotFound},
		{name: "database error", execErr: errors.New("deadlock"), errMsg: "deadlock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectExec(`UPDATE characters`).
				WithArgs("Thorin", "Fighter", 6, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(11), int64(3))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))
			}

			err = NewCharacterRepository(mock).UpdateOwned(context.Background(), &domain.Character{
				ID: 11, UserID: 3, Name: "Thorin", Class: "Fighter", Level: 6,
			})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCharacterRepository_DeleteOwned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM characters WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(11), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM characters WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(11), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewCharacterRepository(mock)
	require.NoError(t, repo.DeleteOwned(context.Background(), 11, 3))
	assert.ErrorIs(t, repo.DeleteOwned(context.Background(), 11, 3), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
