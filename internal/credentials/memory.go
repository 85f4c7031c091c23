// ABOUTME: Thread-safe in-memory TTL cache of chat bearer tokens
// ABOUTME: Size-bounded with oldest-first eviction and a background sweep

package credentials

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// memoryEntry stores the token, its expiry and its list element.
type memoryEntry struct {
	token     string
	expiresAt time.Time
	element   *list.Element
}

// MemoryCache is a thread-safe, size-limited token cache.
// Uses a doubly-linked list to maintain write order for O(1) eviction.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[int64]*memoryEntry
	order   *list.List // chat IDs in write order (oldest at front)
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache holding at most maxSize tokens.
// A background goroutine removes expired entries every sweepInterval;
// a zero interval disables the sweep.
func NewMemoryCache(maxSize int, sweepInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[int64]*memoryEntry),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

// Put stores a token. Writing an existing chat moves it to the back of the eviction order.
func (c *MemoryCache) Put(_ context.Context, chatID int64, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)

	if entry, exists := c.entries[chatID]; exists {
		entry.token = token
		entry.expiresAt = expiresAt
		c.order.MoveToBack(entry.element)
		return nil
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(chatID)
	c.entries[chatID] = &memoryEntry{
		token:     token,
		expiresAt: expiresAt,
		element:   elem,
	}
	return nil
}

// Get returns the token if present and unexpired. Expired entries are removed.
func (c *MemoryCache) Get(_ context.Context, chatID int64) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[chatID]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.removeLocked(chatID, entry)
		return "", false, nil
	}
	return entry.token, true, nil
}

// Forget removes the token for a chat.
func (c *MemoryCache) Forget(_ context.Context, chatID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[chatID]; ok {
		c.removeLocked(chatID, entry)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked must be called with mu held.
func (c *MemoryCache) removeLocked(chatID int64, entry *memoryEntry) {
	c.order.Remove(entry.element)
	delete(c.entries, chatID)
}

// evictOldest removes the least recently written entry. Must be called with mu held.
func (c *MemoryCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	chatID, _ := front.Value.(int64)
	c.order.Remove(front)
	delete(c.entries, chatID)
}

// sweep runs in a background goroutine, periodically removing expired entries.
func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired removes all expired entries from the cache.
func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for chatID, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			c.removeLocked(chatID, entry)
		}
	}
}

// Close stops the background sweep. It is safe to call multiple times.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
	return nil
}
