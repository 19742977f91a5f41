package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightpath-studio/backoffice/internal/application"
	"github.com/brightpath-studio/backoffice/internal/domain"
)

func TestLoginIssuesBoundSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	if res.Token == "" {
		t.Fatalf("login token should not be empty")
	}
	if !res.ExpiresAt.After(f.clock.Now()) {
		t.Fatalf("session expiry should be in the future")
	}

	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.State != domain.VerdictValid {
		t.Fatalf("expected valid verdict, got %s (%s)", verdict.State, verdict.Reason)
	}
	if verdict.Username != "owner" || verdict.AdminID != f.adminID {
		t.Fatalf("verdict identity mismatch: %+v", verdict)
	}

	sessions, err := f.service.ListSessions(ctx, verdict.AdminID, verdict.SessionID)
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if len(sessions) != 1 || !sessions[0].Current {
		t.Fatalf("expected exactly one current session, got %+v", sessions)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	_, err := f.service.Login(ctx, application.LoginRequest{
		Username: "nobody",
		Password: testPassword,
		Client:   defaultClient(),
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown username should report invalid credentials, got %v", err)
	}

	f.clock.Advance(30 * time.Second)
	_, err = f.service.Login(ctx, application.LoginRequest{
		Username: "owner",
		Password: "Wrong#Password1x",
		Client:   defaultClient(),
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password should report invalid credentials, got %v", err)
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.clock.Advance(30 * time.Second)
		_, err := f.service.Login(ctx, application.LoginRequest{
			Username: "owner",
			Password: "Wrong#Password1x",
			Client:   defaultClient(),
		})
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
	}

	// The correct password is rejected while the account is locked.
	f.clock.Advance(30 * time.Second)
	_, err := f.service.Login(ctx, application.LoginRequest{
		Username: "owner",
		Password: testPassword,
		Client:   defaultClient(),
	})
	if !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected account locked, got %v", err)
	}

	status, err := f.lockouts.Status(ctx, "user:owner", f.clock.Now())
	if err != nil || !status.Locked {
		t.Fatalf("expected locked status, got %+v (%v)", status, err)
	}
	if status.Remaining <= 0 || status.Remaining > 15*time.Minute {
		t.Fatalf("first lockout should last up to 15m, remaining %v", status.Remaining)
	}

	// After the lockout lapses the correct password works again.
	f.clock.Advance(16 * time.Minute)
	if _, err := f.service.Login(ctx, application.LoginRequest{
		Username: "owner",
		Password: testPassword,
		Client:   defaultClient(),
	}); err != nil {
		t.Fatalf("login after lockout expiry failed: %v", err)
	}
}

func TestLockoutEscalatesOnRepeatOffense(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	failFiveTimes := func() {
		for i := 0; i < 5; i++ {
			f.clock.Advance(30 * time.Second)
			_, _ = f.service.Login(ctx, application.LoginRequest{
				Username: "owner",
				Password: "Wrong#Password1x",
				Client:   defaultClient(),
			})
		}
	}

	failFiveTimes()
	first, _ := f.lockouts.Status(ctx, "user:owner", f.clock.Now())
	if !first.Locked {
		t.Fatalf("expected first lockout")
	}

	f.clock.Advance(16 * time.Minute)
	failFiveTimes()
	second, _ := f.lockouts.Status(ctx, "user:owner", f.clock.Now())
	if !second.Locked {
		t.Fatalf("expected second lockout")
	}
	if second.Remaining <= first.Remaining {
		t.Fatalf("second lockout should be longer: first %v second %v", first.Remaining, second.Remaining)
	}
}

func TestValidateRejectsStaleTokenVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	if _, err := f.admins.BumpTokenVersion(ctx, f.adminID, f.clock.Now()); err != nil {
		t.Fatalf("bump token version: %v", err)
	}

	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.State != domain.VerdictInvalid || verdict.Reason != domain.ReasonStaleVersion {
		t.Fatalf("expected invalid/stale_version, got %s (%s)", verdict.State, verdict.Reason)
	}
}

func TestValidateRejectsLoggedOutToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	if err := f.service.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.State != domain.VerdictInvalid || verdict.Reason != domain.ReasonRevokedOrUnknown {
		t.Fatalf("expected invalid/revoked_or_unknown, got %s (%s)", verdict.State, verdict.Reason)
	}

	// Logout is idempotent.
	if err := f.service.Logout(ctx, res.Token); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestBindingMismatchStrictVersusObserve(t *testing.T) {
	t.Parallel()

	stranger := application.ClientContext{IP: "203.0.113.9", UserAgent: "unit-test"}

	strict := newFixture(t, application.BindingStrict)
	res := strict.login(t, defaultClient())
	verdict, err := strict.service.ValidateSession(context.Background(), res.Token, stranger)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.State != domain.VerdictInvalid || verdict.Reason != domain.ReasonBindingMismatch {
		t.Fatalf("strict policy should invalidate on mismatch, got %s (%s)", verdict.State, verdict.Reason)
	}

	observe := newFixture(t, application.BindingObserve)
	res = observe.login(t, defaultClient())
	verdict, err = observe.service.ValidateSession(context.Background(), res.Token, stranger)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !verdict.Authenticated() {
		t.Fatalf("observe policy should let the request through, got %s (%s)", verdict.State, verdict.Reason)
	}
}

func TestTransparentRenewalPreservesIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())

	// Inside the final quarter of the session lifetime.
	f.clock.Advance(50 * time.Minute)
	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.State != domain.VerdictNeedsRenewal {
		t.Fatalf("expected needs_renewal, got %s (%s)", verdict.State, verdict.Reason)
	}
	if verdict.NewToken == "" || verdict.NewToken == res.Token {
		t.Fatalf("renewal must issue a distinct token")
	}
	if verdict.AdminID != f.adminID || verdict.Username != "owner" {
		t.Fatalf("renewal changed identity: %+v", verdict)
	}

	// The rotated token is valid; the old one no longer matches a session.
	renewed, err := f.service.ValidateSession(ctx, verdict.NewToken, defaultClient())
	if err != nil {
		t.Fatalf("validate renewed failed: %v", err)
	}
	if renewed.State != domain.VerdictValid {
		t.Fatalf("renewed token should be valid, got %s (%s)", renewed.State, renewed.Reason)
	}
	if renewed.SessionID != verdict.SessionID {
		t.Fatalf("renewal must keep the session id")
	}

	old, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil {
		t.Fatalf("validate old failed: %v", err)
	}
	if old.State != domain.VerdictInvalid || old.Reason != domain.ReasonRevokedOrUnknown {
		t.Fatalf("old token should be unknown after rotation, got %s (%s)", old.State, old.Reason)
	}
}

func TestChangePasswordInvalidatesOtherSessions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	first := f.login(t, defaultClient())
	second := f.login(t, application.ClientContext{IP: "198.51.100.7", UserAgent: "tablet"})

	verdict, err := f.service.ValidateSession(ctx, first.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}

	res, err := f.service.ChangePassword(ctx, verdict, first.Token, application.PasswordChangeRequest{
		CurrentPassword: testPassword,
		NewPassword:     "Replacement#Pass7",
	}, defaultClient())
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if res.SessionsRevoked != 1 {
		t.Fatalf("expected exactly one other session revoked, got %d", res.SessionsRevoked)
	}

	// The caller stays logged in on the replacement token.
	kept, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil || kept.State != domain.VerdictValid {
		t.Fatalf("replacement token should be valid, got %+v (%v)", kept, err)
	}

	// The second session's row is gone; its token is rejected.
	dead, err := f.service.ValidateSession(ctx, second.Token, application.ClientContext{IP: "198.51.100.7", UserAgent: "tablet"})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if dead.Authenticated() {
		t.Fatalf("old session must not survive a password change")
	}

	// New password works, old one does not.
	f.clock.Advance(time.Minute)
	if _, err := f.service.Login(ctx, application.LoginRequest{
		Username: "owner",
		Password: "Replacement#Pass7",
		Client:   defaultClient(),
	}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestTerminateSessionScopedToAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	first := f.login(t, defaultClient())
	second := f.login(t, application.ClientContext{IP: "198.51.100.7", UserAgent: "tablet"})

	verdict, err := f.service.ValidateSession(ctx, first.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}

	if err := f.service.TerminateSession(ctx, verdict.AdminID, second.SessionID); err != nil {
		t.Fatalf("terminate session failed: %v", err)
	}
	if err := f.service.TerminateSession(ctx, verdict.AdminID, second.SessionID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("terminating a gone session should report not found, got %v", err)
	}

	remaining, err := f.service.ListSessions(ctx, verdict.AdminID, verdict.SessionID)
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected one remaining session, got %d", len(remaining))
	}
}
