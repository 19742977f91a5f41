package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// ValidateSession is the single authority for request authentication. It
// runs the full state machine — signature, session lookup, expiry, token
// version, client binding, renewal — and returns a tagged verdict. Callers
// branch on the verdict state and never re-derive any of these checks.
//
// The returned error is reserved for infrastructure failures; every policy
// outcome, including rejection, is expressed in the verdict itself.
func (s *Service) ValidateSession(ctx context.Context, rawToken string, client ClientContext) (domain.SessionVerdict, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			return s.reject(ctx, domain.VerdictExpired, domain.ReasonTokenExpired, ""), nil
		default:
			return s.reject(ctx, domain.VerdictInvalid, domain.ReasonBadSignature, ""), nil
		}
	}

	session, err := s.sessions.GetByTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Absence is never implicitly valid: a logged-out or purged
			// session rejects even a cryptographically sound token.
			return s.reject(ctx, domain.VerdictInvalid, domain.ReasonRevokedOrUnknown, claims.Username), nil
		}
		return domain.SessionVerdict{}, fmt.Errorf("session lookup: %w", err)
	}

	now := s.nowFn()
	if !session.ExpiresAt.After(now) {
		return s.reject(ctx, domain.VerdictExpired, domain.ReasonTokenExpired, claims.Username), nil
	}

	admin, err := s.admins.GetByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.reject(ctx, domain.VerdictInvalid, domain.ReasonRevokedOrUnknown, claims.Username), nil
		}
		return domain.SessionVerdict{}, fmt.Errorf("admin lookup: %w", err)
	}
	if claims.TokenVersion != admin.TokenVersion {
		return s.reject(ctx, domain.VerdictInvalid, domain.ReasonStaleVersion, claims.Username), nil
	}

	if mismatch := s.bindingMismatch(claims, client); mismatch != "" {
		s.logBindingMismatch(ctx, claims.Username, mismatch, s.cfg.BindingPolicy)
		if s.cfg.BindingPolicy != BindingObserve {
			return domain.SessionVerdict{
				State:  domain.VerdictInvalid,
				Reason: domain.ReasonBindingMismatch,
			}, nil
		}
	}

	verdict := domain.SessionVerdict{
		State:               domain.VerdictValid,
		AdminID:             admin.AdminID,
		Username:            admin.Username,
		Role:                admin.Role,
		SessionID:           session.SessionID,
		TimeLeft:            session.ExpiresAt.Sub(now),
		ForcePasswordChange: admin.ForcePasswordChange,
	}

	if s.needsRenewal(verdict.TimeLeft) {
		renewed, err := s.renewSession(ctx, rawToken, admin, claims, now)
		if err != nil {
			// Renewal is opportunistic: a failed rotation (e.g. a
			// concurrent renewal won) leaves the request valid on the old
			// token.
			s.logRenewalFailure(ctx, admin.Username, err)
			return verdict, nil
		}
		verdict.State = domain.VerdictNeedsRenewal
		verdict.NewToken = renewed.token
		verdict.NewExpiry = renewed.expiresAt
		verdict.TimeLeft = renewed.expiresAt.Sub(now)
	}
	return verdict, nil
}

func (s *Service) needsRenewal(timeLeft time.Duration) bool {
	fraction := s.cfg.RenewalFraction
	if fraction <= 0 || fraction >= 1 {
		return false
	}
	return timeLeft < time.Duration(float64(s.cfg.SessionTTL)*fraction)
}

type renewedToken struct {
	token     string
	expiresAt time.Time
}

// renewSession issues a fresh token with the same identity and rotates the
// session row to the new token hash. Last write wins under concurrency.
func (s *Service) renewSession(ctx context.Context, rawToken string, admin domain.AdminUser, claims ports.AuthClaims, now time.Time) (renewedToken, error) {
	expiresAt := now.Add(s.cfg.SessionTTL)
	token, err := s.codec.Issue(ports.AuthClaims{
		AdminID:      admin.AdminID,
		Username:     admin.Username,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
		IPHash:       claims.IPHash,
		DeviceHash:   claims.DeviceHash,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return renewedToken{}, fmt.Errorf("issue renewal token: %w", err)
	}
	if err := s.sessions.Renew(ctx, hashToken(rawToken), hashToken(token), expiresAt, now); err != nil {
		return renewedToken{}, fmt.Errorf("rotate session: %w", err)
	}
	return renewedToken{token: token, expiresAt: expiresAt}, nil
}

// bindingMismatch reports which dimension of the client identity diverged
// from the one the token was issued to, or "" when they match.
func (s *Service) bindingMismatch(claims ports.AuthClaims, client ClientContext) string {
	if claims.IPHash != s.prints.HashIP(client.IP) {
		return "ip"
	}
	if claims.DeviceHash != s.prints.HashDevice(client.UserAgent) {
		return "device"
	}
	return ""
}

func (s *Service) reject(ctx context.Context, state domain.VerdictState, reason domain.InvalidReason, username string) domain.SessionVerdict {
	s.logValidationReject(ctx, username, reason)
	return domain.SessionVerdict{State: state, Reason: reason}
}
