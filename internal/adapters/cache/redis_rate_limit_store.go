package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightpath-studio/backoffice/internal/ports"
)

// RedisRateLimitStore implements keyed throttling on Redis so limits hold
// across service instances.
//
// Fixed-window counters use INCR + EXPIRE: the first increment in a window
// establishes the TTL, later increments ride on it. Progressive backoff
// keeps a per-key consecutive-failure count whose enforced delay doubles
// until maxDelay.
type RedisRateLimitStore struct {
	client *redis.Client
}

func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

var _ ports.RateLimitStore = (*RedisRateLimitStore)(nil)

func (s *RedisRateLimitStore) Check(ctx context.Context, key, action string, limit int, window time.Duration) (ports.RateDecision, error) {
	redisKey := "rl:" + action + ":" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return ports.RateDecision{}, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return ports.RateDecision{}, err
		}
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return ports.RateDecision{}, err
	}
	if ttl < 0 {
		// Key lost its TTL (e.g. Redis restart between INCR and EXPIRE);
		// re-arm rather than throttle forever.
		ttl = window
		_ = s.client.Expire(ctx, redisKey, window).Err()
	}

	decision := ports.RateDecision{
		Allowed:   count <= int64(limit),
		Remaining: limit - int(count),
		ResetAt:   time.Now().Add(ttl).UTC(),
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		decision.RetryAfter = ttl
	}
	return decision, nil
}

func (s *RedisRateLimitStore) ProgressiveCheck(ctx context.Context, key string, baseDelay, maxDelay time.Duration) (ports.RateDecision, error) {
	failKey := "rl:prog:fail:" + key

	raw, err := s.client.Get(ctx, failKey).Int64()
	if err != nil && err != redis.Nil {
		return ports.RateDecision{}, err
	}
	if raw <= 0 {
		return ports.RateDecision{Allowed: true}, nil
	}

	delay := baseDelay
	for i := int64(1); i < raw; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}

	lastKey := "rl:prog:last:" + key
	lastUnix, err := s.client.Get(ctx, lastKey).Int64()
	if err == redis.Nil {
		return ports.RateDecision{Allowed: true}, nil
	}
	if err != nil {
		return ports.RateDecision{}, err
	}

	readyAt := time.Unix(lastUnix, 0).Add(delay)
	now := time.Now()
	if now.Before(readyAt) {
		return ports.RateDecision{
			Allowed:    false,
			ResetAt:    readyAt.UTC(),
			RetryAfter: readyAt.Sub(now),
		}, nil
	}
	return ports.RateDecision{Allowed: true}, nil
}

func (s *RedisRateLimitStore) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	failKey := "rl:prog:fail:" + key
	lastKey := "rl:prog:last:" + key
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, failKey)
		p.Expire(ctx, failKey, window)
		p.Set(ctx, lastKey, time.Now().Unix(), window)
		return nil
	})
	return err
}

func (s *RedisRateLimitStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, "rl:prog:fail:"+key, "rl:prog:last:"+key).Err()
}
