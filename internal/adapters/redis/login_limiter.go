package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/staff-portal/internal/ports"
)

// LoginLimiter counts failed logins per identifier in a fixed window.
// The first failure starts the window; once MaxAttempts failures are recorded the
// identifier is locked until the key expires.
type LoginLimiter struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int64
	window      time.Duration
}

var _ ports.LoginLimiter = (*LoginLimiter)(nil)

// LoginLimiterConfig holds the limiter knobs.
type LoginLimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// NewLoginLimiter creates a limiter. Non-positive settings fall back to 5 attempts per 15 minutes.
func NewLoginLimiter(client redis.UniversalClient, cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "login_fail:"
	}
	return &LoginLimiter{
		client:      client,
		prefix:      cfg.Prefix,
		maxAttempts: int64(cfg.MaxAttempts),
		window:      cfg.Window,
	}
}

func (l *LoginLimiter) key(identifier string) string {
	return l.prefix + strings.ToLower(strings.TrimSpace(identifier))
}

// Allowed reports whether identifier may attempt a login, and otherwise how long it must wait.
func (l *LoginLimiter) Allowed(ctx context.Context, identifier string) (bool, time.Duration, error) {
	key := l.key(identifier)
	count, err := l.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("read login failures: %w", err)
	}
	if count < l.maxAttempts {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("read lockout ttl: %w", err)
	}
	if ttl < 0 {
		ttl = l.window
	}
	return false, ttl, nil
}

// RecordFailure increments the failure count, starting the window on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("set login failure window: %w", err)
		}
	}
	return nil
}

// Reset clears the failure count after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}
