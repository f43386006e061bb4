package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/notification"
)

// NotificationHandler handles notification feed endpoints.
type NotificationHandler struct {
	notificationService *notification.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /v1/notifications - the caller's feed, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.ListForUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "failed to load notifications")
		return
	}
	if notifications == nil {
		notifications = []notification.Notification{}
	}

	response.JSON(w, r, http.StatusOK, notifications)
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), GetUserID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "failed to count notifications")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead handles PUT /v1/notifications/{notificationId}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "notificationId"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "notification id must be an integer", nil)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			response.NotFound(w, r, "notification not found")
			return
		}
		response.InternalError(w, r, "failed to update notification")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllRead handles PUT /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllRead(r.Context(), GetUserID(r.Context())); err != nil {
		response.InternalError(w, r, "failed to update notifications")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
