package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value    []byte
	storedAt time.Time
}

// Memory is an in-process [Cache] with a fixed time-to-live and an injected clock.
type Memory struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]entry
	stats   Stats
}

// NewMemory creates a [Memory] cache. A non-positive ttl uses [DefaultTTL]; a nil clock uses the real clock.
func NewMemory(ttl time.Duration, clock clockwork.Clock) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{clock: clock, ttl: ttl, entries: make(map[string]entry)}
}

// Get returns a copy of the value stored under key if it is younger than the TTL.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, found := m.entries[key]
	m.mu.RUnlock()

	fresh := found && m.clock.Since(e.storedAt) < m.ttl

	m.mu.Lock()
	if fresh {
		m.stats.Hits++
	} else {
		m.stats.Misses++
		if found {
			if current, ok := m.entries[key]; ok && current.storedAt.Equal(e.storedAt) {
				delete(m.entries, key)
			}
		}
	}
	m.mu.Unlock()

	if !fresh {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: append([]byte(nil), value...), storedAt: m.clock.Now()}
	return nil
}

// Len counts stored entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Purge drops expired entries and returns how many were removed.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if m.clock.Since(e.storedAt) >= m.ttl {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Stats returns hit and miss counts.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

var _ Cache = (*Memory)(nil)
