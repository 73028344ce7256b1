package ratelimiter

import (
	"sync"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key inside fixed time windows.
// Windows are reset lazily on the next request after they expire.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

// Allow reports whether the key may proceed, and if not, how long until the
// current window ends.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.evict(now)

	c, ok := rl.clients[key]
	if !ok {
		c = &window{start: now}
		rl.clients[key] = c
	}

	if c.count >= rl.limit {
		return false, c.start.Add(rl.window).Sub(now)
	}
	c.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) evict(now time.Time) {
	for key, c := range rl.clients {
		if now.Sub(c.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
}
