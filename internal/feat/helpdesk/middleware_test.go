package helpdesk

import (
	"testing"
	"time"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newRateLimiter(10, 15*time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		if ok, _ := rl.allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		now = now.Add(time.Minute)
	}

	ok, retry := rl.allow("10.0.0.1")
	if ok {
		t.Fatal("11th request should be blocked")
	}
	if retry != 5*time.Minute {
		t.Errorf("retry = %s, want 5m", retry)
	}

	if ok, _ := rl.allow("10.0.0.2"); !ok {
		t.Error("other addresses are limited independently")
	}

	// the first hit leaves the window
	now = now.Add(5*time.Minute + time.Second)
	if ok, _ := rl.allow("10.0.0.1"); !ok {
		t.Error("request should be allowed once the oldest hit expired")
	}
	if ok, _ := rl.allow("10.0.0.1"); ok {
		t.Error("window should be full again")
	}
}

func TestRateLimiterNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		rl := newRateLimiter(limit, 0)

		if ok, _ := rl.allow("a"); !ok {
			t.Errorf("limit %d: first request should be allowed", limit)
		}
		ok, retry := rl.allow("a")
		if ok {
			t.Errorf("limit %d: second request should be blocked", limit)
		}
		if retry <= 0 {
			t.Errorf("limit %d: retry = %s, want positive", limit, retry)
		}
	}
}
