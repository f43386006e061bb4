package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu            sync.RWMutex
	notifications []Notification
	nextID        int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// Create stores a new notification and fills in its ID.
func (r *MemoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = r.nextID
	r.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications = append(r.notifications, *n)

	return nil
}

// ListForUser returns a user's notifications, newest first.
func (r *MemoryRepository) ListForUser(_ context.Context, userID int64) ([]Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// UnreadCount returns how many of a user's notifications are unread.
func (r *MemoryRepository) UnreadCount(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}

	return count, nil
}

// MarkRead marks one notification as read.
func (r *MemoryRepository) MarkRead(_ context.Context, notificationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == notificationID {
			r.notifications[i].IsRead = true
			return nil
		}
	}

	return ErrNotificationNotFound
}

// MarkAllRead marks all of a user's unread notifications as read.
func (r *MemoryRepository) MarkAllRead(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
		}
	}

	return nil
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
