package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is the canonical authentication identity for the backoffice.
// TokenVersion is a per-user counter: bumping it retroactively invalidates
// every previously issued token without enumerating session rows.
type AdminUser struct {
	AdminID             uuid.UUID
	Username            string
	PasswordHash        string
	Role                string
	TokenVersion        int
	ForcePasswordChange bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Session models one issued login session. The raw token never touches the
// database; rows are keyed by its SHA-256 hash, and binding hashes tie the
// session to the client identity it was issued to.
type Session struct {
	SessionID      uuid.UUID
	AdminID        uuid.UUID
	TokenHash      string
	IPHash         string
	DeviceHash     string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

// FailedLogin is the windowed failure counter for one identifier (a
// username or a source IP). LockoutCount survives resets of the attempt
// window so repeat offenders earn progressively longer lockouts.
type FailedLogin struct {
	Identifier   string
	AttemptCount int
	WindowStart  time.Time
	LockedUntil  *time.Time
	LockoutCount int
}

// CsrfToken is a one-time token scoped to a session. UsedAt transitions
// nil -> set exactly once; any later validation of the same value fails.
type CsrfToken struct {
	TokenHash string
	SessionID uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// LockStatus reports whether an identifier is currently locked out and for
// how much longer.
type LockStatus struct {
	Locked    bool
	Until     time.Time
	Remaining time.Duration
}
