package utils

import (
	"sync"
	"time"
)

// TTLMap is a thread-safe map whose entries expire ttl after they were last set
// or returned by GetOrSet.
// Expired entries are swept in the background until Close is called.
type TTLMap[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]V
	expires map[K]time.Time
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		data:    make(map[K]V),
		expires: make(map[K]time.Time),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	go m.sweep()

	return m
}

// Get retrieves a live value from the map.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.get(key)
}

// GetOrSet returns the live value for key, storing the result of create when absent.
// Either way the entry's expiry is pushed back by ttl, so entries in active use are kept.
func (m *TTLMap[K, V]) GetOrSet(key K, create func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, ok := m.get(key); ok {
		m.expires[key] = time.Now().Add(m.ttl)
		return value
	}

	value := create()
	m.data[key] = value
	m.expires[key] = time.Now().Add(m.ttl)

	return value
}

// Set adds or updates a value in the map.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.expires[key] = time.Now().Add(m.ttl)
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expires, key)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.data)
}

// Close stops the background sweeper.
func (m *TTLMap[K, V]) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *TTLMap[K, V]) get(key K) (V, bool) {
	value, exists := m.data[key]
	if !exists || time.Now().After(m.expires[key]) {
		var zero V
		return zero, false
	}

	return value, true
}

func (m *TTLMap[K, V]) sweep() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, expires := range m.expires {
				if now.After(expires) {
					delete(m.data, key)
					delete(m.expires, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
