package repository

import (
	"context"

	"tabletop-companion/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	// Create inserts the user and returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
