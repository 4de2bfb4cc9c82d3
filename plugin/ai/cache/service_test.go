package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](100, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set("telegram:42", "user-1", 0)

		val, ok := c.Get("telegram:42")
		assert.True(t, ok)
		assert.Equal(t, "user-1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := c.Get("discord:7")
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		c.Set("x:9", "original", 0)
		c.Set("x:9", "updated", 0)

		val, ok := c.Get("x:9")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)
		assert.Equal(t, 2, c.Len())
	})
}

func TestLRU_Expiration(t *testing.T) {
	c := NewLRU[string](100, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", 50*time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch "a" so "b" becomes the least recently used.
	_, _ = c.Get("a")
	c.Set("d", 4, 0)

	_, ok := c.Get("b")
	assert.False(t, ok)
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	c.Set("telegram:1", "u1", 0)
	c.Set("telegram:2", "u2", 0)
	c.Set("discord:1", "u3", 0)

	assert.Equal(t, 2, c.Invalidate("telegram:*"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Invalidate("discord:1"))
	assert.Equal(t, 0, c.Invalidate("discord:1"))
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("short", "v", time.Second)
	c.Set("long", "v", time.Hour)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	c.Set("k", "v", 0)
	_, _ = c.Get("k")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%80)
				c.Set(key, j, 0)
				_, _ = c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}

func TestService(t *testing.T) {
	svc := NewService[string](ServiceConfig{Capacity: 10, DefaultTTL: time.Minute, CleanupInterval: 10 * time.Millisecond})
	defer svc.Close()

	ctx := context.Background()
	svc.Set(ctx, "telegram:42", "user-1", 0)

	val, ok := svc.Get(ctx, "telegram:42")
	require.True(t, ok)
	assert.Equal(t, "user-1", val)

	assert.Equal(t, 1, svc.Invalidate(ctx, "telegram:*"))
	_, ok = svc.Get(ctx, "telegram:42")
	assert.False(t, ok)
}

func TestService_CleanupLoop(t *testing.T) {
	svc := NewService[string](ServiceConfig{Capacity: 10, DefaultTTL: time.Minute, CleanupInterval: 10 * time.Millisecond})
	defer svc.Close()

	svc.Set(context.Background(), "k", "v", 5*time.Millisecond)
	assert.Eventually(t, func() bool { return svc.Stats().Size == 0 }, time.Second, 10*time.Millisecond)
}

func TestService_CloseIdempotent(t *testing.T) {
	svc := NewService[int](DefaultServiceConfig())
	svc.Close()
	svc.Close()
}
