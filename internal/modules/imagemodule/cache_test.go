package imagemodule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache(10, 0)

	img := makeImage(16, 10)
	c.Put("a", img)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, got, img)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheEntryBound(t *testing.T) {
	c := NewCache(3, 0)

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("key-%d", i), makeImage(16, 10))
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("key-0")
	assert.False(t, ok, "oldest entries must be evicted")
	_, ok = c.Get("key-4")
	assert.True(t, ok)
}

func TestCacheByteBound(t *testing.T) {
	// Each 16x10 image costs 640 bytes; three exceed 1500
	c := NewCache(100, 1500)

	c.Put("a", makeImage(16, 10))
	c.Put("b", makeImage(16, 10))
	c.Put("c", makeImage(16, 10))

	assert.Equal(t, 2, c.Len())
	assert.LessOrEqual(t, c.Cost(), int64(1500))
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := NewCache(2, 0)

	c.Put("a", makeImage(16, 10))
	c.Put("b", makeImage(16, 10))
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", makeImage(16, 10))

	_, ok = c.Get("a")
	assert.True(t, ok, "recently read entry must survive eviction")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCachePutSameKeyReplacesCost(t *testing.T) {
	c := NewCache(10, 0)

	c.Put("a", makeImage(16, 10))
	first := c.Cost()
	c.Put("a", makeImage(32, 20))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, first*4, c.Cost())
}

func TestCacheRemoveAndFlush(t *testing.T) {
	c := NewCache(10, 0)

	c.Put("a", makeImage(16, 10))
	c.Put("b", makeImage(16, 10))

	c.Remove("a")
	assert.Equal(t, 1, c.Len())
	c.Remove("a") // absent key is fine

	c.Flush()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Cost())
}
