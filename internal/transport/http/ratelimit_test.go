package http

import (
	"testing"
	"time"
)

func TestRateLimiterCapsWithinWindow(t *testing.T) {
	r := newRateLimiter(2)

	if !r.allow() || !r.allow() {
		t.Fatal("calls within the limit must be allowed")
	}
	if r.allow() {
		t.Fatal("call over the limit must be denied")
	}
}

func TestRateLimiterWindowRollsOver(t *testing.T) {
	clock := time.Now()
	r := newRateLimiter(1)
	r.now = func() time.Time { return clock }
	r.windowStart = clock

	if !r.allow() {
		t.Fatal("first call must be allowed")
	}
	if r.allow() {
		t.Fatal("second call in the same window must be denied")
	}

	clock = clock.Add(time.Minute)
	if !r.allow() {
		t.Fatal("counter must reset after the window expires")
	}
}

func TestRateLimiterZeroLimitDisabled(t *testing.T) {
	r := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !r.allow() {
			t.Fatal("zero limit must disable the cap")
		}
	}
}
