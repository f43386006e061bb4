package handler

import (
	"context"

	"github.com/civicair/civicair/internal/api/middleware"
)

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) int64 {
	return middleware.GetUserID(ctx)
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(ctx context.Context) string {
	return middleware.GetUserRole(ctx)
}
