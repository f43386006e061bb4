package incident

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Predefined incident errors.
var (
	// ErrMissingFields is returned when a report lacks required fields.
	ErrMissingFields = errors.New("user_id, incident_type and coordinates are required")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AdminDirectory lists administrator accounts for report fan-out.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// Notifier delivers messages to user notification feeds.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
	NotifyMany(ctx context.Context, userIDs []int64, message string)
}

// ServiceConfig holds configuration for the incident service.
type ServiceConfig struct {
	// Incidents is the incident store.
	Incidents Repository

	// Admins lists administrator accounts.
	Admins AdminDirectory

	// Notifications delivers lifecycle messages.
	Notifications Notifier

	// Logger for triage events.
	Logger zerolog.Logger
}

// Service manages the incident lifecycle: reporting, listing and guarded
// status transitions, with notifications on each step.
type Service struct {
	incidents     Repository
	admins        AdminDirectory
	notifications Notifier
	logger        zerolog.Logger
}

// NewService creates an incident service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		incidents:     cfg.Incidents,
		admins:        cfg.Admins,
		notifications: cfg.Notifications,
		logger:        cfg.Logger,
	}
}

// Report files a new incident and alerts every administrator. Notification
// failures are logged, not surfaced: the report itself is already stored.
func (s *Service) Report(ctx context.Context, incident *Incident) error {
	if incident.UserID == 0 || incident.Type == "" || incident.Latitude == nil || incident.Longitude == nil {
		return ErrMissingFields
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return fmt.Errorf("creating incident: %w", err)
	}

	admins, err := s.admins.AdminIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("incident_id", incident.ID).Msg("listing admins for incident fan-out failed")
		return nil
	}

	message := fmt.Sprintf("New pollution incident reported at location %s for %s.", incident.PlaceName, incident.Type)
	s.notifications.NotifyMany(ctx, admins, message)

	s.logger.Info().
		Int64("incident_id", incident.ID).
		Int64("user_id", incident.UserID).
		Str("type", incident.Type).
		Msg("incident reported")

	return nil
}

// List returns incidents newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *Status) ([]Incident, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", *status)
	}
	return s.incidents.List(ctx, status)
}

// UpdateStatus moves an incident forward in its lifecycle and notifies the
// reporting citizen exactly once per change.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next Status) error {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !incident.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	if err := s.incidents.UpdateStatus(ctx, id, next); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	message := fmt.Sprintf("Your incident #%d is now %s", id, next)
	if err := s.notifications.Notify(ctx, incident.UserID, message); err != nil {
		s.logger.Error().Err(err).Int64("incident_id", id).Msg("citizen status notification failed")
	}

	s.logger.Info().
		Int64("incident_id", id).
		Str("from", string(incident.Status)).
		Str("to", string(next)).
		Msg("incident status updated")

	return nil
}
