package http

import "time"

// rateLimiter caps inbound websocket frames per minute per connection.
// Only the connection's read loop calls allow, so no locking is needed;
// the window rolls over lazily on the next call after it expires.
type rateLimiter struct {
	limit       int
	counter     int
	windowStart time.Time
	now         func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	r := &rateLimiter{limit: limit, now: time.Now}
	r.windowStart = r.now()
	return r
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.now()
	if now.Sub(r.windowStart) >= time.Minute {
		r.counter = 0
		r.windowStart = now
	}
	r.counter++
	return r.counter <= r.limit
}
