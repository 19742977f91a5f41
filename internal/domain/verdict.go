package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerdictState is the terminal state of a session validation run.
type VerdictState string

const (
	VerdictValid        VerdictState = "VALID"
	VerdictNeedsRenewal VerdictState = "NEEDS_RENEWAL"
	VerdictInvalid      VerdictState = "INVALID"
	VerdictExpired      VerdictState = "EXPIRED"
)

// InvalidReason records why a verdict is Invalid/Expired. It is logged
// server-side only; clients always see a generic unauthorized response.
type InvalidReason string

const (
	ReasonNone             InvalidReason = ""
	ReasonBadSignature     InvalidReason = "bad_signature"
	ReasonTokenExpired     InvalidReason = "token_expired"
	ReasonRevokedOrUnknown InvalidReason = "revoked_or_unknown"
	ReasonStaleVersion     InvalidReason = "stale_version"
	ReasonBindingMismatch  InvalidReason = "binding_mismatch"
)

// SessionVerdict is the tagged result of the session validator. It is the
// single source of truth for request authentication; callers branch on
// State and must not re-derive expiry, version, or binding checks.
type SessionVerdict struct {
	State  VerdictState
	Reason InvalidReason

	// Populated when State is Valid or NeedsRenewal.
	AdminID             uuid.UUID
	Username            string
	Role                string
	SessionID           uuid.UUID
	TimeLeft            time.Duration
	ForcePasswordChange bool

	// NewToken carries the rotated token when State is NeedsRenewal; the
	// HTTP layer re-issues the cookie and treats the request as valid.
	NewToken  string
	NewExpiry time.Time
}

// Authenticated reports whether the verdict lets the request proceed.
func (v SessionVerdict) Authenticated() bool {
	return v.State == VerdictValid || v.State == VerdictNeedsRenewal
}
