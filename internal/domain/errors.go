package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether username or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts
	// against a username.
	ErrAccountLocked = errors.New("account locked")
	// ErrIPLocked is the source-address counterpart of ErrAccountLocked.
	// Username and IP lockouts are tracked independently; either rejects the attempt.
	ErrIPLocked     = errors.New("ip locked")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	// Token verification outcomes. These are purely cryptographic/structural;
	// session-store state is reported through SessionVerdict reasons instead.
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	// ErrStaleTokenVersion rejects tokens minted before the admin's
	// token_version was bumped (password change, logout-everywhere).
	ErrStaleTokenVersion = errors.New("stale token version")
	// ErrBindingMismatch marks a token replayed from a different client
	// identity than the one it was issued to.
	ErrBindingMismatch = errors.New("token binding mismatch")
	ErrSessionNotFound = errors.New("session revoked or unknown")
	ErrSessionExpired  = errors.New("session expired")

	// One-time CSRF token failure taxonomy. Callers must not collapse these
	// into a bool; the HTTP layer maps all of them to a generic 403.
	ErrCsrfMissing  = errors.New("csrf token missing")
	ErrCsrfExpired  = errors.New("csrf token expired")
	ErrCsrfUsed     = errors.New("csrf token already used")
	ErrCsrfMismatch = errors.New("csrf token does not match session")
)
