package notification

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return NewService(ServiceConfig{
		Repository: NewMemoryRepository(),
		Logger:     zerolog.Nop(),
	})
}

func TestService_NotifyAndList(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.Notify(ctx, 1, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Notify(ctx, 1, "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Notify(ctx, 2, "other user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notifications, err := svc.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}
	for _, n := range notifications {
		if n.IsRead {
			t.Error("new notifications must start unread")
		}
	}
}

func TestService_UnreadCountAndMarkRead(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.NotifyMany(ctx, []int64{1, 1, 1}, "ping")

	count, err := svc.UnreadCount(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	notifications, _ := svc.ListForUser(ctx, 1)
	if err := svc.MarkRead(ctx, notifications[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, _ = svc.UnreadCount(ctx, 1)
	if count != 2 {
		t.Errorf("expected 2 unread after marking one, got %d", count)
	}

	if err := svc.MarkAllRead(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, 1)
	if count != 0 {
		t.Errorf("expected 0 unread after mark-all, got %d", count)
	}
}

func TestService_MarkReadUnknownID(t *testing.T) {
	svc := newTestService()

	err := svc.MarkRead(context.Background(), 404)
	if err != ErrNotificationNotFound {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
