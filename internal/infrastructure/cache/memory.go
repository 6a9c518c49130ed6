package cache

import (
	"context"
	"sync"
	"time"

	"prospector/internal/ports"
)

// Memory is an in-process TTL page cache, the default backend when no
// Redis address is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ ports.PageCache = (*Memory)(nil)

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

// NewMemory builds an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}}
}

// Get returns a cached body if present and unexpired. Expired entries are
// dropped lazily on read.
func (m *Memory) Get(_ context.Context, url string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[url]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, url)
		m.mu.Unlock()
		return nil, false
	}
	return entry.body, true
}

// Set stores a body for the given TTL. Last writer wins.
func (m *Memory) Set(_ context.Context, url string, body []byte, ttl time.Duration) {
	m.mu.Lock()
	m.entries[url] = memoryEntry{body: body, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}
