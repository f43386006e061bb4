package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the notification service.
type ServiceConfig struct {
	// Repository is the notification store.
	Repository Repository

	// Logger for delivery events.
	Logger zerolog.Logger
}

// Service manages per-user notification feeds.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a notification service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}
}

// Notify delivers a message to one user's feed.
func (s *Service) Notify(ctx context.Context, userID int64, message string) error {
	n := &Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int64("notification_id", n.ID).
		Msg("notification delivered")

	return nil
}

// NotifyMany delivers the same message to several users. Delivery failures
// are logged and skipped so one bad row never blocks the rest of the fan-out.
func (s *Service) NotifyMany(ctx context.Context, userIDs []int64, message string) {
	for _, userID := range userIDs {
		if err := s.Notify(ctx, userID, message); err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("notification delivery failed")
		}
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

// UnreadCount returns how many of a user's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification as read. Already-read notifications are
// left as-is.
func (s *Service) MarkRead(ctx context.Context, notificationID int64) error {
	return s.repo.MarkRead(ctx, notificationID)
}

// MarkAllRead marks all of a user's unread notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}
