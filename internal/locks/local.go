package locks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalLocker is a single-process fallback used when redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	holds map[string]localHold
}

type localHold struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{holds: make(map[string]localHold)}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	if ttl <= 0 {
		return "", false, ErrInvalidTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if hold, ok := l.holds[key]; ok && hold.expires.After(now) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.holds[key] = localHold{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLocker) Release(_ context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if hold, ok := l.holds[key]; ok && hold.token == token {
		delete(l.holds, key)
	}
	return nil
}
