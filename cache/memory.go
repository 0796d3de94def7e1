package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	titles    []string
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Store. Expired entries are dropped lazily.
func (m *Memory) Get(ctx context.Context, key string) ([]string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	now := m.now()
	if e.expired(now) {
		m.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		e, ok = m.entries[key]
		if ok && e.expired(now) {
			delete(m.entries, key)
			ok = false
		}
		m.mu.Unlock()
		if !ok {
			return nil, false, nil
		}
	}
	return append([]string(nil), e.titles...), true, nil
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Set implements Store. A non-positive ttl keeps the entry until Close.
func (m *Memory) Set(ctx context.Context, key string, titles []string, ttl time.Duration) error {
	e := memoryEntry{titles: append([]string(nil), titles...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
