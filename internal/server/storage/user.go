package storage

import (
	"context"

	"github.com/iudanet/gophblog/internal/models"
)

// UserStorage defines interface for credential persistence.
// Users are never updated or deleted by the application.
type UserStorage interface {
	// CreateUser creates a new user in the storage.
	// Email and username uniqueness is enforced by the storage itself, so of two
	// concurrent calls with the same email exactly one succeeds and the other
	// returns ErrUserAlreadyExists.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by normalized email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}
