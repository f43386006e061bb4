package user

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Repository is the persistence interface for user accounts.
type Repository interface {
	// Create stores a new user and fills in its ID.
	Create(ctx context.Context, u *User) error

	// GetByID returns one user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail returns one user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile replaces a user's editable profile fields.
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error

	// ListAdminIDs returns the IDs of all administrator accounts, used for
	// incident-report fan-out.
	ListAdminIDs(ctx context.Context) ([]int64, error)
}
