package notification

import (
	"context"
	"errors"
)

// ErrNotificationNotFound is returned when a notification does not exist.
var ErrNotificationNotFound = errors.New("notification not found")

// Repository is the persistence interface for notifications.
type Repository interface {
	// Create stores a new notification and fills in its ID.
	Create(ctx context.Context, n *Notification) error

	// ListForUser returns a user's notifications, newest first.
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)

	// UnreadCount returns how many of a user's notifications are unread.
	UnreadCount(ctx context.Context, userID int64) (int, error)

	// MarkRead marks one notification as read.
	MarkRead(ctx context.Context, notificationID int64) error

	// MarkAllRead marks all of a user's unread notifications as read.
	MarkAllRead(ctx context.Context, userID int64) error
}
