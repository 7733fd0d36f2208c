package ratelimit

import (
	"sync"
	"time"
)

const checkoutWindow = time.Minute

// FixedWindow is a fixed-window in-memory limiter keyed by caller.
// State is per process; horizontally scaled deployments get the
// window per instance.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
}

type windowEntry struct {
	count int
	reset time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
	}
}

func (fw *FixedWindow) Allow(key string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	if len(fw.entries) > 4096 {
		fw.prune(now)
	}

	w, ok := fw.entries[key]
	if !ok || now.After(w.reset) {
		fw.entries[key] = &windowEntry{count: 1, reset: now.Add(fw.window)}
		return true
	}
	if w.count >= fw.limit {
		return false
	}
	w.count++
	return true
}

func (fw *FixedWindow) prune(now time.Time) {
	for key, w := range fw.entries {
		if now.After(w.reset) {
			delete(fw.entries, key)
		}
	}
}
