package cache

import (
	"context"
	"sync"
	"time"
)

// Group wraps a Cache with in-flight call deduplication: concurrent Do calls
// for the same cold key share one compute invocation instead of racing. Use
// it for hot, idempotent reads where redundant upstream work matters.
type Group struct {
	cache *Cache

	mu      sync.Mutex
	pending map[string]*call
}

type call struct {
	done  chan struct{}
	value any
	err   error
}

// NewGroup creates a Group over c.
func NewGroup(c *Cache) *Group {
	return &Group{
		cache:   c,
		pending: make(map[string]*call),
	}
}

// Do behaves like WithCache but guarantees at most one concurrent compute per
// key. Callers that join an in-flight call receive its result (or error);
// errors are not cached, so the next caller retries.
func (g *Group) Do(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := g.cache.Get(key); ok {
		return v, nil
	}

	g.mu.Lock()
	if c, ok := g.pending[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.value, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c := &call{done: make(chan struct{})}
	g.pending[key] = c
	g.mu.Unlock()

	c.value, c.err = compute(ctx)
	if c.err == nil {
		g.cache.Set(key, c.value, ttl)
	}

	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
	close(c.done)

	return c.value, c.err
}
