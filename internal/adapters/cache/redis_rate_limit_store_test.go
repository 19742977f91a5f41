package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisRateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRateLimitStore(client), mr
}

func TestFixedWindowCheck(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := store.Check(ctx, "198.51.100.7", "contact", 3, time.Minute)
		if err != nil {
			t.Fatalf("check %d failed: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("request %d: remaining %d", i+1, decision.Remaining)
		}
	}

	decision, err := store.Check(ctx, "198.51.100.7", "contact", 3, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed || decision.RetryAfter <= 0 {
		t.Fatalf("fourth request should be denied with retry hint, got %+v", decision)
	}

	// Another key is unaffected.
	other, err := store.Check(ctx, "203.0.113.9", "contact", 3, time.Minute)
	if err != nil || !other.Allowed {
		t.Fatalf("independent key should be allowed, got %+v (%v)", other, err)
	}

	// A new window opens once the counter TTL lapses.
	mr.FastForward(2 * time.Minute)
	decision, err = store.Check(ctx, "198.51.100.7", "contact", 3, time.Minute)
	if err != nil || !decision.Allowed {
		t.Fatalf("new window should admit the request, got %+v (%v)", decision, err)
	}
}

func TestProgressiveBackoffDoublesAndResets(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	decision, err := store.ProgressiveCheck(ctx, "user:owner", time.Hour, 24*time.Hour)
	if err != nil || !decision.Allowed {
		t.Fatalf("clean key should be allowed, got %+v (%v)", decision, err)
	}

	if err := store.RecordFailure(ctx, "user:owner", time.Hour); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	one, err := store.ProgressiveCheck(ctx, "user:owner", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("progressive check: %v", err)
	}
	if one.Allowed || one.RetryAfter <= 0 {
		t.Fatalf("one failure should enforce the base delay, got %+v", one)
	}

	if err := store.RecordFailure(ctx, "user:owner", time.Hour); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	two, err := store.ProgressiveCheck(ctx, "user:owner", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("progressive check: %v", err)
	}
	if two.Allowed || two.RetryAfter <= one.RetryAfter {
		t.Fatalf("second failure should double the delay: first %v second %v", one.RetryAfter, two.RetryAfter)
	}

	if err := store.Reset(ctx, "user:owner"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	decision, err = store.ProgressiveCheck(ctx, "user:owner", time.Hour, 24*time.Hour)
	if err != nil || !decision.Allowed {
		t.Fatalf("reset key should be allowed, got %+v (%v)", decision, err)
	}
}
