package incident

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu        sync.RWMutex
	incidents []Incident
	nextID    int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// Create stores a new incident and fills in its generated fields.
func (r *MemoryRepository) Create(_ context.Context, i *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i.ID = r.nextID
	r.nextID++
	i.Status = StatusOpen
	if i.ReportedAt.IsZero() {
		i.ReportedAt = time.Now()
	}
	r.incidents = append(r.incidents, *i)

	return nil
}

// GetByID returns one incident.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, incident := range r.incidents {
		if incident.ID == id {
			clone := incident
			return &clone, nil
		}
	}

	return nil, ErrIncidentNotFound
}

// List returns incidents newest first, optionally filtered by status.
func (r *MemoryRepository) List(_ context.Context, status *Status) ([]Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Incident
	for _, incident := range r.incidents {
		if status != nil && incident.Status != *status {
			continue
		}
		result = append(result, incident)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReportedAt.After(result[j].ReportedAt)
	})

	return result, nil
}

// UpdateStatus sets an incident's status.
func (r *MemoryRepository) UpdateStatus(_ context.Context, id int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.incidents {
		if r.incidents[i].ID == id {
			r.incidents[i].Status = status
			return nil
		}
	}

	return ErrIncidentNotFound
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
