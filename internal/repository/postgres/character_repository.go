package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"tabletop-companion/internal/domain"
	"tabletop-companion/internal/repository"
)

// CharacterRepository implements repository.CharacterRepository using PostgreSQL.
type CharacterRepository struct {
	pool poolIface
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(pool poolIface) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

// Create stores a new character owned by character.UserID.
func (r *CharacterRepository) Create(ctx context.Context, character *domain.Character) (int64, error) {
	details, err := encodeDetails(character.Details)
	if err != nil {
		return 0, oops.Code("CHARACTER_CREATE_FAILED").With("operation", "marshal details").Wrap(err)
	}

	now := time.Now().UTC()
	character.CreatedAt = now
	character.UpdatedAt = now

	err = r.pool.QueryRow(ctx, `
		INSERT INTO characters (user_id, name, class, level, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		character.UserID,
		character.Name,
		character.Class,
		character.Level,
		details,
		character.CreatedAt,
		character.UpdatedAt,
	).Scan(&character.ID)
	if err != nil {
		return 0, oops.Code("CHARACTER_CREATE_FAILED").
			With("operation", "insert character").
			With("user_id", character.UserID).
			Wrap(err)
	}
	return character.ID, nil
}

// ListByOwner returns the owner's characters, newest first.
func (r *CharacterRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Character, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, class, level, details, created_at, updated_at
		FROM characters
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
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

// GetOwned retrieves a character only if it belongs to ownerID.
func (r *CharacterRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Character, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, class, level, details, created_at, updated_at
		FROM characters
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	return scanCharacter(row)
}

// UpdateOwned overwrites the mutable columns of an owned character.
func (r *CharacterRepository) UpdateOwned(ctx context.Context, character *domain.Character) error {
	details, err := encodeDetails(character.Details)
	if err != nil {
		return oops.Code("CHARACTER_UPDATE_FAILED").With("operation", "marshal details").Wrap(err)
	}

	character.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE characters
		SET name = $1, class = $2, level = $3, details = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`,
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
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteOwned removes an owned character.
func (r *CharacterRepository) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return oops.Code("CHARACTER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanCharacter(row pgx.Row) (*domain.Character, error) {
	var (
		character domain.Character
		details   []byte
	)
	if err := row.Scan(
		&character.ID,
		&character.UserID,
		&character.Name,
		&character.Class,
		&character.Level,
		&details,
		&character.CreatedAt,
		&character.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, oops.Code("CHARACTER_QUERY_FAILED").Wrap(err)
	}

	attrs, err := domain.DecodeAttributes(details)
	if err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").
			With("operation", "unmarshal details").
			With("id", character.ID).
			Wrap(err)
	}
	character.Details = attrs
	return &character, nil
}

func encodeDetails(details domain.Attributes) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(details)
}

var _ repository.CharacterRepository = (*CharacterRepository)(nil)
