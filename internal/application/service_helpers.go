package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/brightpath-studio/backoffice/internal/domain"
)

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) logAuthSuccess(ctx context.Context, operation, username string) {
	slog.Default().InfoContext(ctx, "auth operation succeeded",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "success",
		"username", username,
	)
}

// logAuthFailure records the precise failure cause server-side. The client
// never sees it; the HTTP layer responds with a generic status.
func (s *Service) logAuthFailure(ctx context.Context, operation, username, reason string) {
	slog.Default().WarnContext(ctx, "auth operation rejected",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "rejected",
		"username", username,
		"reason", reason,
	)
}

func (s *Service) logValidationReject(ctx context.Context, username string, reason domain.InvalidReason) {
	slog.Default().WarnContext(ctx, "session validation rejected",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", "validate_session",
		"outcome", "rejected",
		"username", username,
		"reason", string(reason),
	)
}

// logBindingMismatch is emitted at warning level in both policies: under
// observe it is the only trace of a suspected hijack.
func (s *Service) logBindingMismatch(ctx context.Context, username, dimension string, policy BindingPolicy) {
	slog.Default().WarnContext(ctx, "session binding mismatch",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", "validate_session",
		"outcome", "binding_mismatch",
		"username", username,
		"dimension", dimension,
		"policy", string(policy),
	)
}

func (s *Service) logRenewalFailure(ctx context.Context, username string, err error) {
	slog.Default().WarnContext(ctx, "session renewal skipped",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", "renew_session",
		"outcome", "failure",
		"username", username,
		"error", err,
	)
}

// logThrottleUnavailable traces a lockout or rate-limit store failure. The
// gates fail open so an outage cannot lock every admin out, and this log line
// is the only evidence the protection was skipped.
func (s *Service) logThrottleUnavailable(ctx context.Context, operation, key string, err error) {
	slog.Default().ErrorContext(ctx, "throttle state unavailable",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "degraded",
		"key", key,
		"error", err,
	)
}

func (s *Service) logCsrfReject(ctx context.Context, reason string) {
	slog.Default().WarnContext(ctx, "csrf token rejected",
		"service", "backoffice",
		"module", "application",
		"layer", "application",
		"operation", "validate_csrf",
		"outcome", "rejected",
		"reason", reason,
	)
}
