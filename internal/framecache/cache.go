package framecache

import "sync"

// Cache is an LRU of pixel buffers bounded by their total size in bytes.
type Cache[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
	budget  int
	used    int
	tick    int64 // monotonic access counter
}

type entry struct {
	pix    []uint8
	passes int
	atime  int64
}

// New creates a cache holding at most budget bytes of pixels. A budget of
// 0 or less stores nothing.
func New[K comparable](budget int) *Cache[K] {
	return &Cache[K]{
		entries: make(map[K]*entry),
		budget:  budget,
	}
}

// Get returns the frame stored under key and the number of accumulation
// passes it holds. The returned slice is owned by the cache; copy it
// before modifying.
func (c *Cache[K]) Get(key K) ([]uint8, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, 0, false
	}
	c.tick++
	e.atime = c.tick
	return e.pix, e.passes, true
}

// Put stores a copy of pix under key, replacing any previous frame.
// Frames larger than the whole budget are not stored.
func (c *Cache[K]) Put(key K, pix []uint8, passes int) {
	if len(pix) > c.budget {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.used -= len(old.pix)
	}
	c.tick++
	c.entries[key] = &entry{
		pix:    append([]uint8(nil), pix...),
		passes: passes,
		atime:  c.tick,
	}
	c.used += len(pix)

	if c.used > c.budget {
		c.evict(key)
	}
}

// Delete removes the frame stored under key.
func (c *Cache[K]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.used -= len(e.pix)
		delete(c.entries, key)
	}
	return ok
}

// Clear removes every frame.
func (c *Cache[K]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry)
	c.used = 0
	c.tick = 0
}

// Len returns the number of stored frames.
func (c *Cache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes returns the total size of the stored frames.
func (c *Cache[K]) Bytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// evict drops least recently used frames, never keep, until the cache
// holds three quarters of its budget. Caller must hold c.mu.
func (c *Cache[K]) evict(keep K) {
	target := c.budget * 3 / 4
	for c.used > target && len(c.entries) > 1 {
		var (
			oldest K
			atime  int64
			found  bool
		)
		for k, e := range c.entries {
			if k == keep {
				continue
			}
			if !found || e.atime < atime {
				oldest, atime, found = k, e.atime, true
			}
		}
		if !found {
			return
		}
		c.used -= len(c.entries[oldest].pix)
		delete(c.entries, oldest)
	}
}
