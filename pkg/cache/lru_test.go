package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/cache"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	t.Parallel()

	t.Run("PutAndGet", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("a", 2)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("Remove", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)

		v, ok := c.Remove("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = c.Get("a")
		assert.False(t, ok)

		_, ok = c.Remove("a")
		assert.False(t, ok)
	})

	t.Run("Clear", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](4)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Clear()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("PanicsOnNonPositiveCapacity", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})
}

func TestLRUCacheEviction(t *testing.T) {
	t.Parallel()

	t.Run("EvictsLeastRecentlyUsed", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok := c.Get("a")
		require.True(t, ok)

		c.Put("c", 3)

		_, ok = c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		_, ok = c.Get("c")
		assert.True(t, ok)
	})

	t.Run("EvictCallback", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](1)

		var evicted []string
		c.SetEvictCallback(func(key string, _ int) {
			evicted = append(evicted, key)
		})

		c.Put("a", 1)
		c.Put("b", 2)
		assert.Equal(t, []string{"a"}, evicted)
	})
}

func TestLRUCacheTTL(t *testing.T) {
	t.Parallel()

	t.Run("ExpiredEntryIsAbsent", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		current := now

		c := cache.NewLRUCache[string, int](4)
		c.SetClock(func() time.Time { return current })

		c.PutTTL("a", 1, time.Minute)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		current = now.Add(2 * time.Minute)
		_, ok = c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("ZeroTTLNeverExpires", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		current := now

		c := cache.NewLRUCache[string, int](4)
		c.SetClock(func() time.Time { return current })

		c.Put("a", 1)
		current = now.Add(24 * time.Hour)

		_, ok := c.Get("a")
		assert.True(t, ok)
	})

	t.Run("PutRefreshesExpiry", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		current := now

		c := cache.NewLRUCache[string, int](4)
		c.SetClock(func() time.Time { return current })

		c.PutTTL("a", 1, time.Minute)
		current = now.Add(30 * time.Second)
		c.PutTTL("a", 2, time.Minute)
		current = now.Add(80 * time.Second)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](64)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := range 100 {
				c.Put(base*100+j, j)
				c.Get(base*100 + j)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
