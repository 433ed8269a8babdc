package repository

import (
	"context"

	"tabletop-companion/internal/domain"
)

// CharacterRepository persists characters. Every lookup of a single row takes
// the character id and the owner id together; a row owned by someone else is
// reported as ErrNotFound.
type CharacterRepository interface {
	Create(ctx context.Context, character *domain.Character) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Character, error)
	GetOwned(ctx context.Context, id, ownerID int64) (*domain.Character, error)
	// UpdateOwned writes name, class, level and details of the row matching
	// character.ID and character.UserID.
	UpdateOwned(ctx context.Context, character *domain.Character) error
	DeleteOwned(ctx context.Context, id, ownerID int64) error
}
