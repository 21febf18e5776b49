package usagelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesDailyLimit(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		result, errAllow := limiter.Allow(ctx, "user:1", 2, now)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d denied, want allowed", i)
		}
	}

	result, errAllow := limiter.Allow(ctx, "user:1", 2, now)
	if errAllow != nil {
		t.Fatalf("allow over limit: %v", errAllow)
	}
	if result.Allowed {
		t.Fatal("third attempt allowed, want denied")
	}
	wantReset := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !result.Reset.Equal(wantReset) {
		t.Errorf("reset = %v, want %v", result.Reset, wantReset)
	}
}

func TestMemoryLimiterResetsAtMidnight(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	today := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)

	if result, _ := limiter.Allow(ctx, "user:1", 1, today); !result.Allowed {
		t.Fatal("first attempt denied")
	}
	if result, _ := limiter.Allow(ctx, "user:1", 1, today); result.Allowed {
		t.Fatal("second attempt allowed, want denied")
	}

	tomorrow := today.Add(2 * time.Minute)
	result, errAllow := limiter.Allow(ctx, "user:1", 1, tomorrow)
	if errAllow != nil {
		t.Fatalf("allow next day: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatal("attempt after window reset denied, want allowed")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Now()

	if result, _ := limiter.Allow(ctx, "user:1", 1, now); !result.Allowed {
		t.Fatal("first key denied")
	}
	if result, _ := limiter.Allow(ctx, "user:2", 1, now); !result.Allowed {
		t.Fatal("second key denied, counters should be independent")
	}
}

func TestMemoryLimiterZeroLimitAllows(t *testing.T) {
	limiter := NewMemoryLimiter()

	result, errAllow := limiter.Allow(context.Background(), "user:1", 0, time.Now())
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatal("zero limit denied, want unlimited")
	}
}
