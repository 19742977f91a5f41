package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
)

// IssueCsrfToken mints a fresh one-time token bound to the session. The
// client receives the raw value; only its SHA-256 hash is stored.
func (s *Service) IssueCsrfToken(ctx context.Context, sessionID uuid.UUID) (CsrfTokenResponse, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return CsrfTokenResponse{}, fmt.Errorf("generate csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.nowFn()
	expiresAt := now.Add(s.cfg.CsrfTTL)
	if err := s.csrf.Create(ctx, domain.CsrfToken{
		TokenHash: hashToken(token),
		SessionID: sessionID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return CsrfTokenResponse{}, err
	}
	return CsrfTokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateCsrfToken consumes the candidate exactly once. A token issued to
// a different session still burns on presentation but the request fails
// with ErrCsrfMismatch; of two concurrent presenters of the same value at
// most one passes.
func (s *Service) ValidateCsrfToken(ctx context.Context, sessionID uuid.UUID, candidate string) error {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		s.logCsrfReject(ctx, "missing")
		return domain.ErrCsrfMissing
	}

	consumed, err := s.csrf.Consume(ctx, hashToken(candidate), s.nowFn())
	if err != nil {
		s.logCsrfReject(ctx, csrfReason(err))
		return err
	}
	if consumed.SessionID != sessionID {
		s.logCsrfReject(ctx, "session_mismatch")
		return domain.ErrCsrfMismatch
	}
	return nil
}

func csrfReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCsrfMissing):
		return "unknown_token"
	case errors.Is(err, domain.ErrCsrfExpired):
		return "expired"
	case errors.Is(err, domain.ErrCsrfUsed):
		return "already_used"
	default:
		return "store_error"
	}
}
