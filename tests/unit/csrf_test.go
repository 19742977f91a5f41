package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brightpath-studio/backoffice/internal/application"
	"github.com/brightpath-studio/backoffice/internal/domain"
)

func TestCsrfTokenIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}

	issued, err := f.service.IssueCsrfToken(ctx, verdict.SessionID)
	if err != nil {
		t.Fatalf("issue csrf token failed: %v", err)
	}
	if issued.Token == "" {
		t.Fatalf("csrf token should not be empty")
	}

	if err := f.service.ValidateCsrfToken(ctx, verdict.SessionID, issued.Token); err != nil {
		t.Fatalf("first validation should pass: %v", err)
	}
	if err := f.service.ValidateCsrfToken(ctx, verdict.SessionID, issued.Token); !errors.Is(err, domain.ErrCsrfUsed) {
		t.Fatalf("replay should report already used, got %v", err)
	}
}

func TestCsrfTokenRejectsMissingAndExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}

	if err := f.service.ValidateCsrfToken(ctx, verdict.SessionID, ""); !errors.Is(err, domain.ErrCsrfMissing) {
		t.Fatalf("empty token should report missing, got %v", err)
	}
	if err := f.service.ValidateCsrfToken(ctx, verdict.SessionID, "never-issued"); !errors.Is(err, domain.ErrCsrfMissing) {
		t.Fatalf("unknown token should report missing, got %v", err)
	}

	issued, err := f.service.IssueCsrfToken(ctx, verdict.SessionID)
	if err != nil {
		t.Fatalf("issue csrf token failed: %v", err)
	}
	f.clock.Advance(11 * time.Minute)
	if err := f.service.ValidateCsrfToken(ctx, verdict.SessionID, issued.Token); !errors.Is(err, domain.ErrCsrfExpired) {
		t.Fatalf("stale token should report expired, got %v", err)
	}
}

func TestCsrfTokenBoundToSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	first := f.login(t, defaultClient())
	second := f.login(t, application.ClientContext{IP: "198.51.100.7", UserAgent: "tablet"})

	firstVerdict, err := f.service.ValidateSession(ctx, first.Token, defaultClient())
	if err != nil || !firstVerdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", firstVerdict, err)
	}

	issued, err := f.service.IssueCsrfToken(ctx, firstVerdict.SessionID)
	if err != nil {
		t.Fatalf("issue csrf token failed: %v", err)
	}
	if err := f.service.ValidateCsrfToken(ctx, second.SessionID, issued.Token); !errors.Is(err, domain.ErrCsrfMismatch) {
		t.Fatalf("cross-session token should report mismatch, got %v", err)
	}
	// The mismatched presentation still burned the token.
	if err := f.service.ValidateCsrfToken(ctx, firstVerdict.SessionID, issued.Token); !errors.Is(err, domain.ErrCsrfUsed) {
		t.Fatalf("burned token should report already used, got %v", err)
	}
}

func TestCsrfConcurrentConsumersGetOneWinner(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}
	issued, err := f.service.IssueCsrfToken(ctx, verdict.SessionID)
	if err != nil {
		t.Fatalf("issue csrf token failed: %v", err)
	}

	const presenters = 16
	var wg sync.WaitGroup
	results := make(chan error, presenters)
	for i := 0; i < presenters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.service.ValidateCsrfToken(ctx, verdict.SessionID, issued.Token)
		}()
	}
	wg.Wait()
	close(results)

	var winners, used int
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrCsrfUsed):
			used++
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d (used: %d)", winners, used)
	}
}

// A winning consume must hold even when the cleanup sweep deletes used rows
// at the same moment: the row is captured atomically with the flip, so the
// presenter never sees a spurious failure.
func TestCsrfConsumeSurvivesConcurrentPurge(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.BindingStrict)
	ctx := context.Background()

	res := f.login(t, defaultClient())
	verdict, err := f.service.ValidateSession(ctx, res.Token, defaultClient())
	if err != nil || !verdict.Authenticated() {
		t.Fatalf("expected authenticated verdict, got %+v (%v)", verdict, err)
	}

	for i := 0; i < 32; i++ {
		issued, err := f.service.IssueCsrfToken(ctx, verdict.SessionID)
		if err != nil {
			t.Fatalf("issue csrf token failed: %v", err)
		}

		var wg sync.WaitGroup
		consumeErr := make(chan error, 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			consumeErr <- f.service.ValidateCsrfToken(ctx, verdict.SessionID, issued.Token)
		}()
		go func() {
			defer wg.Done()
			if _, err := f.csrf.PurgeExpired(ctx, f.clock.Now()); err != nil {
				t.Errorf("purge failed: %v", err)
			}
		}()
		wg.Wait()

		if err := <-consumeErr; err != nil {
			t.Fatalf("iteration %d: consume lost to the purge: %v", i, err)
		}
	}
}
