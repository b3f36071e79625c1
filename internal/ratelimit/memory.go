package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count   int
	resetAt time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
}

// NewMemoryLimiter returns an in-process fixed-window limiter, used in tests
// and when Redis is not configured.
func NewMemoryLimiter(window time.Duration) Limiter {
	return &memoryLimiter{
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string, limit int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(l.window)}
		l.entries[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}
