package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/ports"
)

// Config carries the tunable policy knobs of the auth core. Bootstrap fills
// it from file/env; tests construct it directly.
type Config struct {
	SessionTTL      time.Duration
	RenewalFraction float64
	CsrfTTL         time.Duration
	BindingPolicy   BindingPolicy

	Lockout ports.LockoutPolicy

	// Progressive login throttle, independent of the hard lockout.
	LoginBaseDelay  time.Duration
	LoginMaxDelay   time.Duration
	LoginFailWindow time.Duration

	// Public contact-form throttle.
	ContactLimit  int
	ContactWindow time.Duration
}

// BindingPolicy controls how a client-identity mismatch on an otherwise
// valid token is treated.
type BindingPolicy string

const (
	// BindingStrict invalidates the session on mismatch (suspected hijack).
	BindingStrict BindingPolicy = "strict"
	// BindingObserve logs the mismatch but lets the request proceed.
	BindingObserve BindingPolicy = "observe"
)

// ClientContext is the request-scoped client identity every auth operation
// receives. The service hashes it; raw values never reach a store.
type ClientContext struct {
	IP        string
	UserAgent string
}

type LoginRequest struct {
	Username string
	Password string
	Client   ClientContext
}

type LoginResponse struct {
	Token               string
	SessionID           uuid.UUID
	ExpiresAt           time.Time
	ForcePasswordChange bool
}

type PasswordChangeRequest struct {
	CurrentPassword string
	NewPassword     string
}

// PasswordChangeResponse carries the replacement token for the caller's own
// session; every other session is terminated and every older token is
// invalidated by the version bump.
type PasswordChangeResponse struct {
	Token           string
	ExpiresAt       time.Time
	SessionsRevoked int64
}

type CsrfTokenResponse struct {
	Token     string
	ExpiresAt time.Time
}

// SessionItem is the admin-facing view of one active session.
type SessionItem struct {
	SessionID      uuid.UUID `json:"session_id"`
	Current        bool      `json:"current"`
	UserAgent      string    `json:"user_agent"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
