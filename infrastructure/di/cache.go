package di

import (
	"context"
	"sync"
	"time"

	"recipebook/application/ports"
)

const cacheSweepInterval = time.Minute

// InMemoryCache provides a simple in-memory cache implementation.
// When maxEntries is reached the entry closest to expiry is evicted.
type InMemoryCache struct {
	mu         sync.RWMutex
	items      map[string]cacheItem
	maxEntries int
	now        func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache. maxEntries <= 0 means unbounded.
// Close stops the background sweeper.
func NewInMemoryCache(maxEntries int) *InMemoryCache {
	cache := &InMemoryCache{
		items:      make(map[string]cacheItem),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go cache.cleanupExpired(cacheSweepInterval)

	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !c.now().Before(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value in cache with TTL in seconds. A non-positive TTL stores nothing.
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictLocked()
	}
	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}
	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Len reports the number of stored entries, expired ones included
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper and waits for it to exit. It is safe to call more than once.
func (c *InMemoryCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
	})
}

// evictLocked drops expired entries, or the soonest-expiring one if none are expired
func (c *InMemoryCache) evictLocked() {
	now := c.now()
	var (
		victim  string
		soonest time.Time
	)
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
			continue
		}
		if victim == "" || item.expiresAt.Before(soonest) {
			victim, soonest = key, item.expiresAt
		}
	}
	if len(c.items) >= c.maxEntries && victim != "" {
		delete(c.items, victim)
	}
}

func (c *InMemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// cleanupExpired periodically removes expired items until Close
func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

var _ ports.Cache = (*InMemoryCache)(nil)
