package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civicair/civicair/internal/api/models"
	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/user"
)

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	userService *user.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService *user.Service) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// sendOTPRequest is the POST /v1/auth/send-otp body.
type sendOTPRequest struct {
	Email string `json:"email"`
}

// SendOTP handles POST /v1/auth/send-otp - emails a registration code.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Email == "" {
		response.BadRequest(w, r, "email is required", []models.FieldError{
			{Field: "email", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	if err := h.userService.SendOTP(r.Context(), req.Email); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			response.BadRequest(w, r, "email already registered", nil)
			return
		}
		response.InternalError(w, r, "failed to send verification code")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]string{
		"message": "OTP sent to your email",
	})
}

// registerRequest is the POST /v1/auth/register body.
type registerRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	user.ProfileUpdate
}

// Register handles POST /v1/auth/register - creates a citizen account after
// OTP verification.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Email == "" || req.Password == "" || req.OTP == "" {
		response.BadRequest(w, r, "email, password and otp are required", nil)
		return
	}

	u, err := h.userService.Register(r.Context(), user.RegisterParams{
		Email:    req.Email,
		OTP:      req.OTP,
		Password: req.Password,
		Profile:  req.ProfileUpdate,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrIncompleteProfile):
			response.BadRequest(w, r, err.Error(), nil)
		case errors.Is(err, user.ErrOTPNotFound), errors.Is(err, user.ErrOTPExpired), errors.Is(err, user.ErrOTPMismatch):
			response.BadRequest(w, r, "invalid or expired OTP", nil)
		case errors.Is(err, user.ErrEmailTaken):
			response.BadRequest(w, r, "email already registered", nil)
		default:
			response.InternalError(w, r, "registration failed")
		}
		return
	}

	response.Created(w, r, "", u)
}

// loginRequest is the POST /v1/auth/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the POST /v1/auth/login body on success.
type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt models.Timestamp `json:"expires_at"`
	User      *user.User       `json:"user"`
}

// Login handles POST /v1/auth/login - password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, r, "email and password are required", nil)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, r, "user not found")
		case errors.Is(err, user.ErrInvalidCredentials):
			response.Unauthorized(w, r, "invalid email or password")
		default:
			response.InternalError(w, r, "login failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: models.Timestamp(result.ExpiresAt),
		User:      result.User,
	})
}
