// ABOUTME: Thread-safe TTL cache of processed Telegram update IDs
// ABOUTME: Used by the poller to drop updates redelivered within the window

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// seenEntry stores when an update ID was marked and its list element.
type seenEntry struct {
	markedAt time.Time
	element  *list.Element
}

// Cache tracks update IDs seen within a time window, bounded in size.
// A linked list keeps IDs in mark order so the oldest is evicted in O(1).
type Cache struct {
	mu      sync.Mutex
	seen    map[int64]*seenEntry
	order   *list.List // update IDs, oldest at front
	window  time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache remembering at most maxSize update IDs for window.
// A background goroutine drops expired IDs once a minute.
func New(window time.Duration, maxSize int) *Cache {
	c := newCache(window, maxSize, time.Now)
	go c.cleanup()
	return c
}

func newCache(window time.Duration, maxSize int, now func() time.Time) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		seen:    make(map[int64]*seenEntry),
		order:   list.New(),
		window:  window,
		maxSize: maxSize,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Seen reports whether updateID was already marked inside the window.
// An unseen ID is marked before returning, so of two concurrent callers with
// the same ID exactly one gets false.
func (c *Cache) Seen(updateID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.seen[updateID]; ok {
		if now.Sub(entry.markedAt) < c.window {
			return true
		}
		entry.markedAt = now
		c.order.MoveToBack(entry.element)
		return false
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}
	c.seen[updateID] = &seenEntry{
		markedAt: now,
		element:  c.order.PushBack(updateID),
	}
	return false
}

// Len returns the number of remembered IDs, expired ones included until cleanup.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// evictOldest removes the oldest ID. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(int64)
	c.order.Remove(front)
	delete(c.seen, id)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
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

// removeExpired walks from the oldest mark and stops at the first live one.
func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		id, _ := front.Value.(int64)
		if now.Sub(c.seen[id].markedAt) < c.window {
			return
		}
		c.order.Remove(front)
		delete(c.seen, id)
	}
}

// Close stops the cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
