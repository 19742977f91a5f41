package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightpath-studio/backoffice/internal/ports"
)

// Worker is the periodic garbage collector for auth state: expired session
// rows, consumed or expired CSRF tokens, and failed-login counters whose
// window and lockout have both lapsed. Clean-up is opportunistic — the
// validators never rely on it for correctness — so an iteration failure is
// logged and retried on the next tick.
type Worker struct {
	logger    *slog.Logger
	sessions  ports.SessionRepository
	csrf      ports.CsrfTokenRepository
	lockouts  ports.LockoutRepository
	interval  time.Duration
	retention time.Duration
}

func NewWorker(
	logger *slog.Logger,
	sessions ports.SessionRepository,
	csrf ports.CsrfTokenRepository,
	lockouts ports.LockoutRepository,
	interval time.Duration,
	retention time.Duration,
) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Worker{
		logger:    logger,
		sessions:  sessions,
		csrf:      csrf,
		lockouts:  lockouts,
		interval:  interval,
		retention: retention,
	}
}

// Run executes the purge loop until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweepOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) sweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	sessions, err := w.sessions.PurgeExpired(ctx, now)
	if err != nil {
		w.logFailure(ctx, "purge_sessions", err)
	}
	tokens, err := w.csrf.PurgeExpired(ctx, now)
	if err != nil {
		w.logFailure(ctx, "purge_csrf_tokens", err)
	}
	counters, err := w.lockouts.PurgeStale(ctx, now.Add(-w.retention))
	if err != nil {
		w.logFailure(ctx, "purge_failed_logins", err)
	}

	if sessions > 0 || tokens > 0 || counters > 0 {
		w.logger.InfoContext(ctx, "janitor sweep completed",
			"module", "janitor",
			"layer", "adapter",
			"operation", "sweep",
			"outcome", "success",
			"sessions_purged", sessions,
			"csrf_tokens_purged", tokens,
			"failed_login_rows_purged", counters,
		)
	}
}

func (w *Worker) logFailure(ctx context.Context, operation string, err error) {
	w.logger.ErrorContext(ctx, "janitor sweep step failed",
		"module", "janitor",
		"layer", "adapter",
		"operation", operation,
		"outcome", "failure",
		"error", err,
	)
}
