package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicair/civicair/internal/auth"
)

// Predefined account errors.
var (
	// ErrEmailTaken is returned when registration targets an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIncompleteProfile is returned when required profile fields are missing.
	ErrIncompleteProfile = errors.New("all profile and address fields are required")
)

// ServiceConfig holds configuration for the account service.
type ServiceConfig struct {
	// Users is the account store.
	Users Repository

	// OTP issues and verifies registration codes.
	OTP *OTPStore

	// Mailer delivers registration codes.
	Mailer Mailer

	// JWT issues access tokens on login.
	JWT *auth.JWTService

	// Logger for account events.
	Logger zerolog.Logger
}

// Service manages accounts: OTP-verified registration, login and profiles.
type Service struct {
	users  Repository
	otp    *OTPStore
	mailer Mailer
	jwt    *auth.JWTService
	logger zerolog.Logger
}

// NewService creates an account service.
func NewService(cfg ServiceConfig) *Service {
	otp := cfg.OTP
	if otp == nil {
		otp = NewOTPStore(0, nil)
	}

	return &Service{
		users:  cfg.Users,
		otp:    otp,
		mailer: cfg.Mailer,
		jwt:    cfg.JWT,
		logger: cfg.Logger,
	}
}

// SendOTP issues a registration code to an unregistered email.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("checking email: %w", err)
	}

	code, err := s.otp.Issue(email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTP(email, code); err != nil {
		return fmt.Errorf("delivering otp: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("registration otp issued")
	return nil
}

// RegisterParams carries a registration request.
type RegisterParams struct {
	Email    string
	OTP      string
	Password string
	Profile  ProfileUpdate
}

// Register creates a citizen account after verifying the registration code.
// The code is consumed on success and on expiry.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if !params.Profile.Complete() {
		return nil, ErrIncompleteProfile
	}

	if err := s.otp.Verify(params.Email, params.OTP); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Name:           params.Profile.Name,
		Email:          params.Email,
		ContactNumber:  params.Profile.ContactNumber,
		AddressHouse:   params.Profile.AddressHouse,
		AddressStreet:  params.Profile.AddressStreet,
		AddressCity:    params.Profile.AddressCity,
		AddressState:   params.Profile.AddressState,
		AddressPincode: params.Profile.AddressPincode,
		PasswordHash:   string(hash),
		Role:           RoleCitizen,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Login authenticates by email and password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info().Int64("user_id", u.ID).Msg("user logged in")
	return &LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// GetProfile returns one user's profile.
func (s *Service) GetProfile(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile replaces a user's editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	if !update.Complete() {
		return ErrIncompleteProfile
	}
	return s.users.UpdateProfile(ctx, id, update)
}

// AdminIDs returns the IDs of all administrator accounts.
func (s *Service) AdminIDs(ctx context.Context) ([]int64, error) {
	return s.users.ListAdminIDs(ctx)
}
