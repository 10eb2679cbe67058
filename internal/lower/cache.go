package lower

import (
	"context"
	"sync"

	"irlower/internal/ir"
	"irlower/internal/node"
)

type cacheEntry struct {
	once     sync.Once
	callable *node.Callable
	err      error
}

// Cache lowers each function at most once. Concurrent first requests for
// the same function wait for a single lowering and share its result.
type Cache struct {
	l *Lowerer

	mu      sync.Mutex
	entries map[*ir.Func]*cacheEntry
}

// NewCache returns an empty cache lowering through l.
func NewCache(l *Lowerer) *Cache {
	return &Cache{l: l, entries: make(map[*ir.Func]*cacheEntry)}
}

func (c *Cache) entry(fn *ir.Func) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fn]
	if !ok {
		e = &cacheEntry{}
		c.entries[fn] = e
	}
	return e
}

// Get returns the callable of fn, lowering it on first use. A failed
// lowering is remembered and returned to every later caller.
func (c *Cache) Get(ctx context.Context, fn *ir.Func) (*node.Callable, error) {
	e := c.entry(fn)
	e.once.Do(func() {
		e.callable, e.err = c.l.Lower(ctx, fn)
	})
	return e.callable, e.err
}
