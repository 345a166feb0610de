package compiler

import "sync"

// Cache memoizes compiled components by key. Concurrent requests for the
// same key block on a single in-flight compilation, so each key compiles at
// most once regardless of how many renders race for it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ready chan struct{}
	comp  *Component
	err   error
}

// NewCache returns an empty compilation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the cached component for key, invoking compile on the first
// request. A failed compilation is not cached; the next request retries.
func (c *Cache) Get(key string, compile func() (*Component, error)) (*Component, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.ready
		return e.comp, e.err
	}

	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.comp, e.err = compile()
	close(e.ready)

	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	return e.comp, e.err
}

// Lookup returns the cached component for key without compiling. It blocks
// if a compilation for key is in flight.
func (c *Cache) Lookup(key string) (*Component, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	<-e.ready
	if e.err != nil {
		return nil, false
	}
	return e.comp, true
}

// Invalidate drops the cached component for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every cached component.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Size returns the number of cached entries, including in-flight ones.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
