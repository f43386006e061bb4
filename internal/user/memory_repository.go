package user

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]*User
	nextID int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[int64]*User),
		nextID: 1,
	}
}

// Create stores a new user and fills in its ID.
func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.ID = r.nextID
	r.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	clone := *u
	r.users[u.ID] = &clone

	return nil
}

// GetByID returns one user by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetByEmail returns one user by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}

	return nil, ErrUserNotFound
}

// UpdateProfile replaces a user's editable profile fields.
func (r *MemoryRepository) UpdateProfile(_ context.Context, id int64, update ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}

	u.Name = update.Name
	u.ContactNumber = update.ContactNumber
	u.AddressHouse = update.AddressHouse
	u.AddressStreet = update.AddressStreet
	u.AddressCity = update.AddressCity
	u.AddressState = update.AddressState
	u.AddressPincode = update.AddressPincode

	return nil
}

// ListAdminIDs returns the IDs of all administrator accounts.
func (r *MemoryRepository) ListAdminIDs(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int64
	for _, u := range r.users {
		if u.Role == RoleAdmin {
			ids = append(ids, u.ID)
		}
	}

	return ids, nil
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
