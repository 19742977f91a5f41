package memory

import (
	"context"
	"sync"
	"time"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// LockoutRepository tracks windowed login failures per identifier. The
// mutex plays the role the Postgres adapter gives to row locks: threshold
// crossing is atomic.
type LockoutRepository struct {
	mu      sync.Mutex
	records map[string]domain.FailedLogin
}

func NewLockoutRepository() *LockoutRepository {
	return &LockoutRepository{records: make(map[string]domain.FailedLogin)}
}

var _ ports.LockoutRepository = (*LockoutRepository)(nil)

func (r *LockoutRepository) Status(_ context.Context, identifier string, now time.Time) (domain.LockStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return statusAt(r.records[identifier], now), nil
}

func (r *LockoutRepository) RecordFailure(_ context.Context, identifier string, now time.Time, policy ports.LockoutPolicy) (domain.LockStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[identifier]
	if !ok {
		rec = domain.FailedLogin{Identifier: identifier, WindowStart: now}
	}

	if rec.LockedUntil != nil && now.Before(*rec.LockedUntil) {
		return statusAt(rec, now), nil
	}

	if now.Sub(rec.WindowStart) > policy.Window {
		rec.AttemptCount = 0
		rec.WindowStart = now
	}
	rec.AttemptCount++

	if rec.AttemptCount >= policy.Threshold {
		until := now.Add(lockoutDuration(policy, rec.LockoutCount))
		rec.LockedUntil = &until
		rec.LockoutCount++
		rec.AttemptCount = 0
		rec.WindowStart = now
	}

	r.records[identifier] = rec
	return statusAt(rec, now), nil
}

func (r *LockoutRepository) RecordSuccess(_ context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identifier]
	if !ok {
		return nil
	}
	rec.AttemptCount = 0
	rec.LockedUntil = nil
	r.records[identifier] = rec
	return nil
}

func (r *LockoutRepository) PurgeStale(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, rec := range r.records {
		if rec.WindowStart.Before(before) && (rec.LockedUntil == nil || rec.LockedUntil.Before(before)) {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

func statusAt(rec domain.FailedLogin, now time.Time) domain.LockStatus {
	if rec.LockedUntil == nil || !now.Before(*rec.LockedUntil) {
		return domain.LockStatus{}
	}
	return domain.LockStatus{
		Locked:    true,
		Until:     *rec.LockedUntil,
		Remaining: rec.LockedUntil.Sub(now),
	}
}

func lockoutDuration(policy ports.LockoutPolicy, priorLockouts int) time.Duration {
	d := policy.BaseLockout
	for i := 0; i < priorLockouts; i++ {
		d *= 2
		if d >= policy.MaxLockout {
			return policy.MaxLockout
		}
	}
	if policy.MaxLockout > 0 && d > policy.MaxLockout {
		return policy.MaxLockout
	}
	return d
}
