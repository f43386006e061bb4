package user

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// OTP policy.
const (
	// otpLength is the number of digits in a code.
	otpLength = 6

	// DefaultOTPTTL is how long a code stays valid.
	DefaultOTPTTL = 10 * time.Minute
)

// Predefined OTP errors.
var (
	// ErrOTPNotFound is returned when no code was issued for the email.
	ErrOTPNotFound = errors.New("no otp found")

	// ErrOTPExpired is returned when the code's validity window has passed.
	ErrOTPExpired = errors.New("otp expired")

	// ErrOTPMismatch is returned when the submitted code is wrong.
	ErrOTPMismatch = errors.New("invalid otp")
)

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// OTPStore issues and verifies single-use registration codes, keyed by email.
// In-memory: codes are short-lived and losing them on restart only means the
// user requests a new one.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

// NewOTPStore creates an OTP store. A zero ttl selects the default; a nil
// clock selects the real clock.
func NewOTPStore(ttl time.Duration, clock clockwork.Clock) *OTPStore {
	if ttl == 0 {
		ttl = DefaultOTPTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OTPStore{
		entries: make(map[string]otpEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Issue generates a fresh code for the email, replacing any outstanding one.
func (s *OTPStore) Issue(email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = otpEntry{
		code:      code,
		expiresAt: s.clock.Now().Add(s.ttl),
	}

	return code, nil
}

// Verify checks a submitted code and consumes it on success. Expired codes
// are dropped so a retry with the same code also fails.
func (s *OTPStore) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok {
		return ErrOTPNotFound
	}

	if s.clock.Now().After(entry.expiresAt) {
		delete(s.entries, email)
		return ErrOTPExpired
	}

	if entry.code != code {
		return ErrOTPMismatch
	}

	delete(s.entries, email)
	return nil
}

// generateCode produces a zero-padded numeric code from crypto/rand.
func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", otpLength, n), nil
}
