package locks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inkpress/inkpress/internal/locks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerTryLockAndRelease(t *testing.T) {
	ctx := context.Background()
	l := locks.NewLocalLocker()

	token, ok, err := l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	// Held: a second acquirer is refused without error.
	_, ok, err = l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different key is independent.
	_, ok, err = l.TryLock(ctx, "customer:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Release(ctx, "customer:1", token))
	_, ok, err = l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerReleaseNeedsMatchingToken(t *testing.T) {
	ctx := context.Background()
	l := locks.NewLocalLocker()

	token, ok, err := l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// A stale token must not free another holder's lock.
	require.NoError(t, l.Release(ctx, "customer:1", "stale"))
	_, ok, err = l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "customer:1", token))
}

func TestLocalLockerExpiredHoldIsReacquirable(t *testing.T) {
	ctx := context.Background()
	l := locks.NewLocalLocker()

	_, ok, err := l.TryLock(ctx, "customer:1", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok, err = l.TryLock(ctx, "customer:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerValidatesInput(t *testing.T) {
	ctx := context.Background()
	l := locks.NewLocalLocker()

	_, _, err := l.TryLock(ctx, "", time.Minute)
	assert.ErrorIs(t, err, locks.ErrEmptyKey)

	_, _, err = l.TryLock(ctx, "customer:1", 0)
	assert.ErrorIs(t, err, locks.ErrInvalidTTL)
}

func TestWithLockNilLockerRunsDirectly(t *testing.T) {
	ran := false
	err := locks.WithLock(context.Background(), nil, "customer:1", time.Minute, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLockSerializesCriticalSection(t *testing.T) {
	l := locks.NewLocalLocker()

	var mu sync.Mutex
	inSection := 0
	maxInSection := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.WithLock(context.Background(), l, "customer:1", time.Minute, func(ctx context.Context) error {
				mu.Lock()
				inSection++
				if inSection > maxInSection {
					maxInSection = inSection
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inSection--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInSection)
}

func TestWithLockHonorsContextCancellation(t *testing.T) {
	l := locks.NewLocalLocker()

	token, ok, err := l.TryLock(context.Background(), "customer:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = l.Release(context.Background(), "customer:1", token) }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = locks.WithLock(ctx, l, "customer:1", time.Minute, func(ctx context.Context) error {
		t.Fatal("critical section must not run while the lock is held elsewhere")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
