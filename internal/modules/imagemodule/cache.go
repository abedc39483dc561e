package imagemodule

import (
	"container/list"
	"image"
	"sync"
)

const (
	// DefaultMaxEntries is the default entry-count bound
	DefaultMaxEntries = 100

	// DefaultMaxBytes is the default cumulative byte-cost bound (500 MiB)
	DefaultMaxBytes int64 = 500 << 20
)

type cacheEntry struct {
	key  string
	img  image.Image
	cost int64
}

// Cache is a bounded in-memory cache of decoded images keyed by
// reference string. Both an entry-count limit and a cumulative
// byte-cost limit are enforced; whichever is exceeded first triggers
// eviction. Callers must not rely on eviction order, only on the
// bounds holding. The cache is purely an optimization: a miss or a
// full flush only costs latency, never correctness.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int64
	totalCost  int64
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
}

// NewCache creates a cache with the given bounds. Non-positive bounds
// fall back to the defaults.
func NewCache(maxEntries int, maxBytes int64) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the cached image for the key, if present
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).img, true
}

// Put stores an image, estimating its cost as width*height*4 bytes
func (c *Cache) Put(key string, img image.Image) {
	bounds := img.Bounds()
	cost := int64(bounds.Dx()) * int64(bounds.Dy()) * 4
	c.PutWithCost(key, img, cost)
}

// PutWithCost stores an image with an explicit byte-cost
func (c *Cache) PutWithCost(key string, img image.Image, cost int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.totalCost += cost - entry.cost
		entry.img = img
		entry.cost = cost
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&cacheEntry{key: key, img: img, cost: cost})
		c.entries[key] = elem
		c.totalCost += cost
	}

	c.evictLocked()
}

// Remove drops the entry for the key, if present
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElementLocked(elem)
	}
}

// Flush drops every entry
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.totalCost = 0
}

// Len returns the current entry count
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cost returns the current cumulative byte-cost
func (c *Cache) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

func (c *Cache) evictLocked() {
	for len(c.entries) > c.maxEntries || c.totalCost > c.maxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.removeElementLocked(oldest)
	}
}

func (c *Cache) removeElementLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
	c.totalCost -= entry.cost
}
