package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set by the progressive login variant: the enforced
	// cool-down that doubles per consecutive failure.
	RetryAfter time.Duration
}

// RateLimitStore is the generic keyed throttling primitive. Counters live
// in a shared store (Redis) so limits hold across service instances; an
// in-process-only counter would silently stop working under horizontal
// scale.
type RateLimitStore interface {
	// Check counts one request for (key, action) against a fixed window.
	Check(ctx context.Context, key, action string, limit int, window time.Duration) (RateDecision, error)
	// ProgressiveCheck enforces a per-key delay that doubles with each
	// consecutive recorded failure. Independent of the hard lockout.
	ProgressiveCheck(ctx context.Context, key string, baseDelay, maxDelay time.Duration) (RateDecision, error)
	// RecordFailure advances the progressive backoff for key.
	RecordFailure(ctx context.Context, key string, window time.Duration) error
	// Reset clears progressive state after a success.
	Reset(ctx context.Context, key string) error
}
