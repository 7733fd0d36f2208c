package locks

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConfigured = errors.New("lock client not configured")
	ErrEmptyKey      = errors.New("lock key is empty")
	ErrInvalidTTL    = errors.New("lock ttl must be positive")
)

// Locker serializes creation of provider artifacts for a single subject.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

const acquireRetryInterval = 50 * time.Millisecond

// WithLock runs fn while holding the named lock, waiting for the holder
// to release it if contended. The lock is released on return.
func WithLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}

	var token string
	for {
		t, ok, err := locker.TryLock(ctx, key, ttl)
		if err != nil {
			return err
		}
		if ok {
			token = t
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = locker.Release(releaseCtx, key, token)
	}()

	return fn(ctx)
}
