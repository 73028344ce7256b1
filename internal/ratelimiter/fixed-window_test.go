package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindowRateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are counted separately")

	now = now.Add(4 * time.Second)
	ok, retry = rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, retry)

	now = now.Add(6 * time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "a new window starts once the old one ends")
}

func TestFixedWindowRateLimiter_EvictsExpired(t *testing.T) {
	now := time.Now()
	rl := NewFixedWindowLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Len(t, rl.clients, 2)

	now = now.Add(2 * time.Second)
	rl.Allow("c")
	assert.Len(t, rl.clients, 1)
}
