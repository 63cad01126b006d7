package repository

import (
	"context"

	"ordayna/backend/internal/user/domain"
)

// Repository defines persistence for user accounts.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail returns the user with the given email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Exists reports whether a user with the given id exists.
	Exists(ctx context.Context, id int64) (bool, error)
	// Create persists the user and assigns its ID.
	Create(ctx context.Context, u *domain.User) error
	// Delete removes the user. Missing rows are not an error.
	Delete(ctx context.Context, id int64) error
	UpdateDisplayName(ctx context.Context, id int64, displayName string) error
	UpdatePhone(ctx context.Context, id int64, phone string) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
