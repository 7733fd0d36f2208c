package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter gates one request per call. Allow never returns an error;
// a broken backend fails open so rate limiting cannot take the
// public surface down with it.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

const (
	// 30 requests per minute with room for a short burst.
	checkoutRate  = 0.5
	checkoutBurst = 30
)

// NewCheckoutLimiter returns the limiter guarding the public checkout
// endpoints. With redis configured the window is shared across
// instances; otherwise each process keeps its own fixed window.
func NewCheckoutLimiter(client *redis.Client, log *zap.Logger) Limiter {
	if client != nil {
		return &redisLimiter{
			bucket: NewTokenBucket(client),
			rate:   checkoutRate,
			burst:  checkoutBurst,
			log:    log.Named("ratelimit"),
		}
	}
	return &windowLimiter{window: NewFixedWindow(checkoutBurst, checkoutWindow)}
}

type redisLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func (l *redisLimiter) Allow(ctx context.Context, key string) bool {
	ok, err := l.bucket.Allow(ctx, "inkpress:ratelimit:checkout:"+key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return true
	}
	return ok
}

type windowLimiter struct {
	window *FixedWindow
}

func (l *windowLimiter) Allow(_ context.Context, key string) bool {
	return l.window.Allow(key)
}
