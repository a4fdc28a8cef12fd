package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LoginThrottle counts failed login attempts per client IP in Redis.
// Key format: login_attempts:<ip>, expiring after the configured window.
//
// The throttle fails open: if Redis is unreachable, logins proceed and the
// outage is logged. Authentication availability wins over the rate limit.
type LoginThrottle struct {
	client *redis.Client
	max    int64
	window time.Duration
	log    zerolog.Logger
}

func NewLoginThrottle(client *redis.Client, max int, window time.Duration, log zerolog.Logger) *LoginThrottle {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, max: int64(max), window: window, log: log}
}

// Blocked reports whether the IP has exhausted its failed-attempt budget.
func (t *LoginThrottle) Blocked(ctx context.Context, ip string) bool {
	if t.client == nil {
		return false
	}
	n, err := t.client.Get(ctx, t.key(ip)).Int64()
	if err != nil {
		if err != redis.Nil {
			t.log.Warn().Err(err).Msg("login throttle read failed")
		}
		return false
	}
	return n >= t.max
}

// RecordFailure increments the IP's failure counter and refreshes the window.
func (t *LoginThrottle) RecordFailure(ctx context.Context, ip string) {
	if t.client == nil {
		return
	}
	key := t.key(ip)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.log.Warn().Err(err).Msg("login throttle write failed")
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, ip string) {
	if t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(ip)).Err(); err != nil {
		t.log.Warn().Err(err).Msg("login throttle reset failed")
	}
}

func (t *LoginThrottle) key(ip string) string {
	return fmt.Sprintf("login_attempts:%s", ip)
}
