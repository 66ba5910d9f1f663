// Package cache provides the in-memory status cache used to keep ban
// checks and identity lookups off the hot path. Entries expire on a TTL
// and the cache holds a bounded number of entries, evicting the least
// recently used. Reads and writes are synchronous; correctness never
// depends on an entry being present.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Region is a bounded TTL map with LRU eviction.
type Region[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]*list.Element
	order      *list.List // front is most recently used
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

type regionEntry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// NewRegion creates a cache region with the given TTL and entry bound.
func NewRegion[K comparable, V any](ttl time.Duration, maxEntries int) *Region[K, V] {
	r := &Region[K, V]{
		entries:    make(map[K]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}

	go r.cleanup()

	return r
}

// Get retrieves a value from the region.
// Returns the value and whether it exists/is valid.
func (r *Region[K, V]) Get(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, exists := r.entries[key]
	if !exists {
		var zero V
		return zero, false
	}

	entry := elem.Value.(*regionEntry[K, V])

	// Expired entries count as misses and drop immediately
	if time.Now().After(entry.expires) {
		r.removeElement(elem)

		var zero V

		return zero, false
	}

	r.order.MoveToFront(elem)

	return entry.value, true
}

// Set adds or updates a value in the region, evicting the least recently
// used entry when the bound is hit.
func (r *Region[K, V]) Set(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires := time.Now().Add(r.ttl)

	if elem, exists := r.entries[key]; exists {
		entry := elem.Value.(*regionEntry[K, V])
		entry.value = value
		entry.expires = expires
		r.order.MoveToFront(elem)

		return
	}

	elem := r.order.PushFront(&regionEntry[K, V]{key: key, value: value, expires: expires})
	r.entries[key] = elem

	if r.maxEntries > 0 && r.order.Len() > r.maxEntries {
		if oldest := r.order.Back(); oldest != nil {
			r.removeElement(oldest)
		}
	}
}

// Delete removes a key from the region.
func (r *Region[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, exists := r.entries[key]; exists {
		r.removeElement(elem)
	}
}

// Flush drops every entry in the region.
func (r *Region[K, V]) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[K]*list.Element)
	r.order.Init()
}

// Len reports how many entries the region currently holds, expired or not.
func (r *Region[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.order.Len()
}

// Close stops the background cleanup goroutine.
func (r *Region[K, V]) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// removeElement drops an entry. Callers must hold the lock.
func (r *Region[K, V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*regionEntry[K, V])
	delete(r.entries, entry.key)
	r.order.Remove(elem)
}

// cleanup periodically removes expired entries.
func (r *Region[K, V]) cleanup() {
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()

			now := time.Now()
			for elem := r.order.Back(); elem != nil; {
				prev := elem.Prev()

				entry := elem.Value.(*regionEntry[K, V])
				if now.After(entry.expires) {
					r.removeElement(elem)
				}

				elem = prev
			}

			r.mu.Unlock()
		}
	}
}
