// Package notification manages per-user notification feeds: incident updates
// for citizens and new-report alerts for administrators.
package notification

import "time"

// Notification is a message delivered to one user's feed.
type Notification struct {
	ID        int64     `json:"notification_id"`
	UserID    int64     `json:"-"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
