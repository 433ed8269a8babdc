package domain

import "time"

// User represents an account that owns characters.
type User struct {
	ID           int64
	Email        string
	Username     *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
