package memory

import (
	"context"
	"sync"
	"time"

	"github.com/brightpath-studio/backoffice/internal/ports"
)

// RateLimitStore mirrors the Redis fixed-window and progressive-backoff
// semantics in process memory. Suitable for tests and single-instance dev;
// limits do not hold across instances.
type RateLimitStore struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*windowCounter
	prog    map[string]*progressiveState
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

type progressiveState struct {
	failures    int
	lastFailure time.Time
	expiresAt   time.Time
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		now:     time.Now,
		windows: make(map[string]*windowCounter),
		prog:    make(map[string]*progressiveState),
	}
}

// WithClock overrides the time source for tests.
func (s *RateLimitStore) WithClock(now func() time.Time) *RateLimitStore {
	s.now = now
	return s
}

var _ ports.RateLimitStore = (*RateLimitStore)(nil)

func (s *RateLimitStore) Check(_ context.Context, key, action string, limit int, window time.Duration) (ports.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	mapKey := action + ":" + key
	w, ok := s.windows[mapKey]
	if !ok || !now.Before(w.resetAt) {
		w = &windowCounter{resetAt: now.Add(window)}
		s.windows[mapKey] = w
	}
	w.count++

	decision := ports.RateDecision{
		Allowed:   w.count <= limit,
		Remaining: limit - w.count,
		ResetAt:   w.resetAt,
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		decision.RetryAfter = w.resetAt.Sub(now)
	}
	return decision, nil
}

func (s *RateLimitStore) ProgressiveCheck(_ context.Context, key string, baseDelay, maxDelay time.Duration) (ports.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.prog[key]
	if !ok || p.failures == 0 || !now.Before(p.expiresAt) {
		return ports.RateDecision{Allowed: true}, nil
	}

	delay := baseDelay
	for i := 1; i < p.failures; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}

	readyAt := p.lastFailure.Add(delay)
	if now.Before(readyAt) {
		return ports.RateDecision{
			Allowed:    false,
			ResetAt:    readyAt,
			RetryAfter: readyAt.Sub(now),
		}, nil
	}
	return ports.RateDecision{Allowed: true}, nil
}

func (s *RateLimitStore) RecordFailure(_ context.Context, key string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.prog[key]
	if !ok || !now.Before(p.expiresAt) {
		p = &progressiveState{}
		s.prog[key] = p
	}
	p.failures++
	p.lastFailure = now
	p.expiresAt = now.Add(window)
	return nil
}

func (s *RateLimitStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prog, key)
	return nil
}
