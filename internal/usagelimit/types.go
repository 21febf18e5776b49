// Package usagelimit enforces the FREE-plan daily generation cap using a
// fixed per-UTC-day window, in memory by default or via Redis when multiple
// instances share the counter.
package usagelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a daily usage check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides daily usage checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// dayWindow returns the UTC day bucket and the next reset time.
func dayWindow(now time.Time) (string, time.Time) {
	utc := now.UTC()
	day := utc.Format("2006-01-02")
	reset := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return day, reset
}
