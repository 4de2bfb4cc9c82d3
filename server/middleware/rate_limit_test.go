package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)

	assert.True(t, rl.Allow("telegram:42"))
	assert.True(t, rl.Allow("telegram:42"))
	assert.False(t, rl.Allow("telegram:42"))

	// Keys are independent.
	assert.True(t, rl.Allow("discord:42"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("x:1")
	now = now.Add(5 * time.Minute)
	rl.Allow("x:2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())
}
