package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/user"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	userService *user.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

// resolveUserID parses the path user ID and checks the caller may act on it.
// Citizens may only touch their own profile; admins may touch any.
func resolveUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		return 0, false
	}
	if GetUserRole(r.Context()) == string(user.RoleAdmin) {
		return id, true
	}
	return id, id == GetUserID(r.Context())
}

// GetProfile handles GET /v1/users/{userId}.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, allowed := resolveUserID(r)
	if !allowed {
		response.NotFound(w, r, "user not found")
		return
	}

	u, err := h.userService.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		response.InternalError(w, r, "failed to load profile")
		return
	}

	response.JSON(w, r, http.StatusOK, u)
}

// UpdateProfile handles PUT /v1/users/{userId}.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, allowed := resolveUserID(r)
	if !allowed {
		response.NotFound(w, r, "user not found")
		return
	}

	var update user.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.userService.UpdateProfile(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, user.ErrIncompleteProfile):
			response.BadRequest(w, r, err.Error(), nil)
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, r, "user not found")
		default:
			response.InternalError(w, r, "failed to update profile")
		}
		return
	}

	u, err := h.userService.GetProfile(r.Context(), id)
	if err != nil {
		response.InternalError(w, r, "failed to load profile")
		return
	}

	response.JSON(w, r, http.StatusOK, u)
}
