package http

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(2, time.Hour)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		if got, _ := rl.Allow(ctx, "1.2.3.4"); got != want {
			t.Fatalf("hit %d: allow=%v want %v", i, got, want)
		}
	}
	if ok, _ := rl.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatal("keys must not share a window")
	}

	now = now.Add(59 * time.Minute)
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("window must not slide on rejected hits")
	}
	now = now.Add(time.Minute)
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("new window should admit again")
	}
}

func TestRedisLimiter_WindowKey(t *testing.T) {
	rl := NewRedisLimiter(nil, "rl:register", 5, 500*time.Millisecond)
	if rl.period != time.Second {
		t.Fatalf("sub-second period must round up to 1s, got %v", rl.period)
	}
	if NewRedisLimiter(nil, "p", 1, 0).period != time.Second {
		t.Fatal("zero period must not survive construction")
	}

	rl = NewRedisLimiter(nil, "rl:register", 5, time.Hour)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	rl.now = func() time.Time { return now }

	first := rl.windowKey("1.2.3.4")
	now = start.Add(59 * time.Minute)
	if got := rl.windowKey("1.2.3.4"); got != first {
		t.Fatalf("same window, different keys: %s vs %s", first, got)
	}
	now = start.Add(time.Hour)
	if got := rl.windowKey("1.2.3.4"); got == first {
		t.Fatalf("next window reused key %s", got)
	}
	if got := rl.windowKey("5.6.7.8"); got == rl.windowKey("1.2.3.4") {
		t.Fatal("clients must not share a counter")
	}
}
