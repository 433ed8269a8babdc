package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"

	"tabletop-companion/internal/domain"
	"tabletop-companion/internal/repository"
)

const characterColumns = `id, user_id, name, class, level, details, created_at, updated_at`

type CharacterRepository struct {
	db *sql.DB
}

func NewCharacterRepository(db *sql.DB) repository.CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) Create(ctx context.Context, character *domain.Character) (int64, error) {
	details, err := encodeDetails(character.Details)
	if err != nil {
		return 0, oops.Code("CHARACTER_CREATE_FAILED").With("operation", "marshal details").Wrap(err)
	}

	now := time.Now().UTC()
	character.CreatedAt = now
	character.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO characters (user_id, name, class, level, details, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		character.UserID,
		character.Name,
		character.Class,
		character.Level,
		details,
		character.CreatedAt,
		character.UpdatedAt,
	)
	if err != nil {
		return 0, oops.Code("CHARACTER_CREATE_FAILED").With("user_id", character.UserID).Wrap(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, oops.Code("CHARACTER_CREATE_FAILED").With("operation", "last insert id").Wrap(err)
	}
	character.ID = id
	return id, nil
}

func (r *CharacterRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Character, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+characterColumns+`
FROM characters
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").With("user_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	characters := make([]domain.Character, 0)
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *character)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").With("user_id", ownerID).Wrap(err)
	}
	return characters, nil
}

func (r *CharacterRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Character, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+characterColumns+`
FROM characters
WHERE id = ? AND user_id = ?`,
		id,
		ownerID,
	)
	return scanCharacter(row)
}

func (r *CharacterRepository) UpdateOwned(ctx context.Context, character *domain.Character) error {
	details, err := encodeDetails(character.Details)
	if err != nil {
		return oops.Code("CHARACTER_UPDATE_FAILED").With("operation", "marshal details").Wrap(err)
	}

	character.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE characters
SET name=?, class=?, level=?, details=?, updated_at=?
WHERE id=? AND user_id=?`,
		character.Name,
		character.Class,
		character.Level,
		details,
		character.UpdatedAt,
		character.ID,
		character.UserID,
	)
	if err != nil {
		return oops.Code("CHARACTER_UPDATE_FAILED").With("id", character.ID).Wrap(err)
	}
	return requireAffected(res, "CHARACTER_UPDATE_FAILED")
}

func (r *CharacterRepository) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id=? AND user_id=?`, id, ownerID)
	if err != nil {
		return oops.Code("CHARACTER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return requireAffected(res, "CHARACTER_DELETE_FAILED")
}

func requireAffected(res sql.Result, code string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return oops.Code(code).With("operation", "rows affected").Wrap(err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanCharacter(scanner interface {
	Scan(dest ...any) error
}) (*domain.Character, error) {
	var (
		character domain.Character
		details   string
	)
	if err := scanner.Scan(
		&character.ID,
		&character.UserID,
		&character.Name,
		&character.Class,
		&character.Level,
		&details,
		&character.CreatedAt,
		&character.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, oops.Code("CHARACTER_QUERY_FAILED").Wrap(err)
	}

	attrs, err := domain.DecodeAttributes([]byte(details))
	if err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").With("id", character.ID).Wrap(err)
	}
	character.Details = attrs
	return &character, nil
}

func encodeDetails(details domain.Attributes) (string, error) {
	if details == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
