package incident

import (
	"context"
	"errors"
)

// ErrIncidentNotFound is returned when an incident does not exist.
var ErrIncidentNotFound = errors.New("incident not found")

// Repository is the persistence interface for incidents.
type Repository interface {
	// Create stores a new incident and fills in its ID, status and
	// reported-at time.
	Create(ctx context.Context, i *Incident) error

	// GetByID returns one incident.
	GetByID(ctx context.Context, id int64) (*Incident, error)

	// List returns incidents newest first, optionally filtered by status.
	List(ctx context.Context, status *Status) ([]Incident, error)

	// UpdateStatus sets an incident's status.
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
