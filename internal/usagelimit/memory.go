package usagelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	day   string
	count int
}

// MemoryLimiter implements a fixed-window in-memory daily limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryEntry
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the action should be allowed for the current UTC day.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	day, reset := dayWindow(now)

	l.mu.Lock()
	entry := l.counters[key]
	if entry == nil || entry.day != day {
		entry = &memoryEntry{day: day}
		l.counters[key] = entry
	}
	entry.count++
	count := entry.count
	l.mu.Unlock()

	if count > limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset}, nil
}
