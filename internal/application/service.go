package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// Service is the application core: login, session validation, CSRF
// protection, session management and throttling all run through it. The
// HTTP adapter never talks to a store directly.
type Service struct {
	cfg      Config
	admins   ports.AdminRepository
	sessions ports.SessionRepository
	lockouts ports.LockoutRepository
	csrf     ports.CsrfTokenRepository
	limiter  ports.RateLimitStore
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	prints   ports.Fingerprinter
	nowFn    func() time.Time
}

type Dependencies struct {
	Config   Config
	Admins   ports.AdminRepository
	Sessions ports.SessionRepository
	Lockouts ports.LockoutRepository
	Csrf     ports.CsrfTokenRepository
	Limiter  ports.RateLimitStore
	Hasher   ports.PasswordHasher
	Codec    ports.TokenCodec
	Prints   ports.Fingerprinter
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:      deps.Config,
		admins:   deps.Admins,
		sessions: deps.Sessions,
		lockouts: deps.Lockouts,
		csrf:     deps.Csrf,
		limiter:  deps.Limiter,
		hasher:   deps.Hasher,
		codec:    deps.Codec,
		prints:   deps.Prints,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// Login runs the full gate sequence: hard lockout (username and source IP
// independently), progressive throttle, then credential verification. Every
// failure surfaces to the client as the same generic error; the precise
// cause is logged server-side only.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return LoginResponse{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	userKey := "user:" + username
	ipKey := "ip:" + req.Client.IP

	// Throttle-store failures fail open: login proceeds to the credential
	// check, but never silently.
	if status, err := s.lockouts.Status(ctx, userKey, now); err != nil {
		s.logThrottleUnavailable(ctx, "lockout_status", userKey, err)
	} else if status.Locked {
		s.logAuthFailure(ctx, "login", username, "account_locked")
		return LoginResponse{}, domain.ErrAccountLocked
	}
	if status, err := s.lockouts.Status(ctx, ipKey, now); err != nil {
		s.logThrottleUnavailable(ctx, "lockout_status", ipKey, err)
	} else if status.Locked {
		s.logAuthFailure(ctx, "login", username, "ip_locked")
		return LoginResponse{}, domain.ErrIPLocked
	}

	if decision, err := s.limiter.ProgressiveCheck(ctx, ipKey, s.cfg.LoginBaseDelay, s.cfg.LoginMaxDelay); err != nil {
		s.logThrottleUnavailable(ctx, "progressive_check", ipKey, err)
	} else if !decision.Allowed {
		s.logAuthFailure(ctx, "login", username, "progressive_throttle")
		return LoginResponse{}, domain.ErrRateLimited
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.recordLoginFailure(ctx, username, req.Client, "unknown_username")
			return LoginResponse{}, domain.ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}

	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		s.recordLoginFailure(ctx, username, req.Client, "wrong_password")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.lockouts.RecordSuccess(ctx, userKey); err != nil {
		s.logThrottleUnavailable(ctx, "record_success", userKey, err)
	}
	if err := s.lockouts.RecordSuccess(ctx, ipKey); err != nil {
		s.logThrottleUnavailable(ctx, "record_success", ipKey, err)
	}
	if err := s.limiter.Reset(ctx, ipKey); err != nil {
		s.logThrottleUnavailable(ctx, "throttle_reset", ipKey, err)
	}

	token, session, err := s.issueSession(ctx, admin, req.Client, now)
	if err != nil {
		return LoginResponse{}, err
	}

	s.logAuthSuccess(ctx, "login", admin.Username)
	return LoginResponse{
		Token:               token,
		SessionID:           session.SessionID,
		ExpiresAt:           session.ExpiresAt,
		ForcePasswordChange: admin.ForcePasswordChange,
	}, nil
}

// Logout deletes the session row for the presented token. Idempotent: a
// token whose session is already gone still results in a cleared cookie.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	err := s.sessions.DeleteByTokenHash(ctx, hashToken(rawToken))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// ChangePassword verifies the current password, installs the new hash and
// bumps token_version so every outstanding token dies. The caller's own
// session is kept alive under a freshly issued token; all other sessions
// are terminated.
func (s *Service) ChangePassword(ctx context.Context, verdict domain.SessionVerdict, rawToken string, req PasswordChangeRequest, client ClientContext) (PasswordChangeResponse, error) {
	if !verdict.Authenticated() {
		return PasswordChangeResponse{}, domain.ErrUnauthorized
	}

	admin, err := s.admins.GetByID(ctx, verdict.AdminID)
	if err != nil {
		return PasswordChangeResponse{}, domain.ErrUnauthorized
	}
	if err := s.hasher.Compare(admin.PasswordHash, req.CurrentPassword); err != nil {
		s.logAuthFailure(ctx, "change_password", admin.Username, "wrong_current_password")
		return PasswordChangeResponse{}, domain.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return PasswordChangeResponse{}, err
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return PasswordChangeResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	if err := s.admins.UpdatePassword(ctx, admin.AdminID, newHash, now); err != nil {
		return PasswordChangeResponse{}, err
	}
	newVersion, err := s.admins.BumpTokenVersion(ctx, admin.AdminID, now)
	if err != nil {
		return PasswordChangeResponse{}, err
	}

	current := verdict.SessionID
	revoked, err := s.sessions.DeleteAllForAdmin(ctx, admin.AdminID, &current)
	if err != nil {
		return PasswordChangeResponse{}, err
	}

	// Re-key the surviving session so the caller stays logged in under the
	// new version.
	expiresAt := now.Add(s.cfg.SessionTTL)
	newToken, err := s.codec.Issue(ports.AuthClaims{
		AdminID:      admin.AdminID,
		Username:     admin.Username,
		Role:         admin.Role,
		TokenVersion: newVersion,
		IPHash:       s.prints.HashIP(client.IP),
		DeviceHash:   s.prints.HashDevice(client.UserAgent),
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return PasswordChangeResponse{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.Renew(ctx, hashToken(rawToken), hashToken(newToken), expiresAt, now); err != nil {
		return PasswordChangeResponse{}, err
	}

	s.logAuthSuccess(ctx, "change_password", admin.Username)
	return PasswordChangeResponse{
		Token:           newToken,
		ExpiresAt:       expiresAt,
		SessionsRevoked: revoked,
	}, nil
}

// ThrottleContact applies the fixed-window public contact-form limit per
// source IP.
func (s *Service) ThrottleContact(ctx context.Context, ip string) (ports.RateDecision, error) {
	return s.limiter.Check(ctx, ip, "contact", s.cfg.ContactLimit, s.cfg.ContactWindow)
}

// issueSession mints a signed token and persists the matching session row,
// keyed by the token's SHA-256 hash.
func (s *Service) issueSession(ctx context.Context, admin domain.AdminUser, client ClientContext, now time.Time) (string, domain.Session, error) {
	expiresAt := now.Add(s.cfg.SessionTTL)
	ipHash := s.prints.HashIP(client.IP)
	deviceHash := s.prints.HashDevice(client.UserAgent)

	token, err := s.codec.Issue(ports.AuthClaims{
		AdminID:      admin.AdminID,
		Username:     admin.Username,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
		IPHash:       ipHash,
		DeviceHash:   deviceHash,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("issue token: %w", err)
	}

	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		AdminID:        admin.AdminID,
		TokenHash:      hashToken(token),
		IPHash:         ipHash,
		DeviceHash:     deviceHash,
		UserAgent:      client.UserAgent,
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
	})
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return token, session, nil
}

// recordLoginFailure advances every throttle dimension after a failed
// credential check: hard lockout on username and IP, progressive backoff on
// IP.
func (s *Service) recordLoginFailure(ctx context.Context, username string, client ClientContext, reason string) {
	now := s.nowFn()
	if _, err := s.lockouts.RecordFailure(ctx, "user:"+username, now, s.cfg.Lockout); err != nil {
		s.logThrottleUnavailable(ctx, "record_lockout_failure", "user:"+username, err)
	}
	if _, err := s.lockouts.RecordFailure(ctx, "ip:"+client.IP, now, s.cfg.Lockout); err != nil {
		s.logThrottleUnavailable(ctx, "record_lockout_failure", "ip:"+client.IP, err)
	}
	if err := s.limiter.RecordFailure(ctx, "ip:"+client.IP, s.cfg.LoginFailWindow); err != nil {
		s.logThrottleUnavailable(ctx, "record_throttle_failure", "ip:"+client.IP, err)
	}
	s.logAuthFailure(ctx, "login", username, reason)
}
