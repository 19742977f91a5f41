package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
)

// AdminRepository defines persistence operations for admin identities.
// BumpTokenVersion exists so a password change or logout-everywhere can
// invalidate outstanding tokens without touching session rows.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.AdminUser, error)
	GetByID(ctx context.Context, adminID uuid.UUID) (domain.AdminUser, error)
	UpdatePassword(ctx context.Context, adminID uuid.UUID, passwordHash string, updatedAt time.Time) error
	BumpTokenVersion(ctx context.Context, adminID uuid.UUID, updatedAt time.Time) (int, error)
}

// SessionCreateParams captures everything required to persist a session row.
// Binding hashes are computed by the caller; the repository never sees raw
// client identity signals or raw tokens.
type SessionCreateParams struct {
	AdminID        uuid.UUID
	TokenHash      string
	IPHash         string
	DeviceHash     string
	UserAgent      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
}

// SessionRepository manages persistent session lifecycle, keyed by token
// hash. Create must fail with domain.ErrConflict on a duplicate token hash
// rather than silently overwrite; a missing row on lookup is always
// domain.ErrNotFound, never implicitly valid.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)
	ListForAdmin(ctx context.Context, adminID uuid.UUID) ([]domain.Session, error)
	// Renew rotates the token hash and pushes expiry forward. Concurrent
	// renewals converge last-write-wins; no cross-request ordering is
	// guaranteed or needed.
	Renew(ctx context.Context, tokenHash, newTokenHash string, newExpiry, touchedAt time.Time) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByID(ctx context.Context, adminID, sessionID uuid.UUID) error
	DeleteAllForAdmin(ctx context.Context, adminID uuid.UUID, exceptSessionID *uuid.UUID) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// LockoutRepository tracks windowed login failures per identifier and owns
// the progressive lockout decision. Threshold crossing must be atomic at
// the store level so two racing failures cannot both skip the lock.
type LockoutRepository interface {
	Status(ctx context.Context, identifier string, now time.Time) (domain.LockStatus, error)
	RecordFailure(ctx context.Context, identifier string, now time.Time, policy LockoutPolicy) (domain.LockStatus, error)
	RecordSuccess(ctx context.Context, identifier string) error
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}

// LockoutPolicy parameterizes the progressive lockout calculation.
type LockoutPolicy struct {
	Threshold   int
	Window      time.Duration
	BaseLockout time.Duration
	MaxLockout  time.Duration
}

// CsrfTokenRepository persists one-time CSRF tokens keyed by hash. Consume
// flips used_at under the store's atomicity guarantee: of two concurrent
// consumers of the same value at most one succeeds.
type CsrfTokenRepository interface {
	Create(ctx context.Context, token domain.CsrfToken) error
	// Consume returns the consumed row on success, or one of
	// domain.ErrCsrfMissing / ErrCsrfExpired / ErrCsrfUsed.
	Consume(ctx context.Context, tokenHash string, now time.Time) (domain.CsrfToken, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
