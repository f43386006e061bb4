package location

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu        sync.RWMutex
	locations []Location
}

// NewMemoryRepository creates an in-memory repository with the given
// locations.
func NewMemoryRepository(locations []Location) *MemoryRepository {
	return &MemoryRepository{
		locations: append([]Location(nil), locations...),
	}
}

// List returns every monitored location.
func (r *MemoryRepository) List(_ context.Context) ([]Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Location(nil), r.locations...), nil
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
