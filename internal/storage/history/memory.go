// Package history keeps the rolling log of recent signal responses.
package history

import (
	"sync"

	"github.com/newthinker/quantsafe/internal/core"
)

// DefaultSize is the number of responses kept when no size is given. It is
// also the upper bound on any store.
const DefaultSize = 10

// MemoryStore is a bounded, newest-first in-memory log.
type MemoryStore struct {
	entries []core.SignalResponse
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a store holding at most maxSize entries. Sizes
// outside [1, DefaultSize] become DefaultSize.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 || maxSize > DefaultSize {
		maxSize = DefaultSize
	}
	return &MemoryStore{
		entries: make([]core.SignalResponse, 0, maxSize),
		maxSize: maxSize,
	}
}

// Prepend adds r as the newest entry and evicts the oldest past capacity.
func (m *MemoryStore) Prepend(r core.SignalResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries) + 1
	if n > m.maxSize {
		n = m.maxSize
	}
	next := make([]core.SignalResponse, n, m.maxSize)
	next[0] = r
	copy(next[1:], m.entries)
	m.entries = next
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (m *MemoryStore) List(limit int) []core.SignalResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.SignalResponse, n)
	copy(out, m.entries[:n])
	return out
}

// Latest returns the newest entry, if any.
func (m *MemoryStore) Latest() (core.SignalResponse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return core.SignalResponse{}, false
	}
	return m.entries[0], true
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cap returns the configured capacity.
func (m *MemoryStore) Cap() int {
	return m.maxSize
}

// CountBySignal tallies the stored entries per signal kind.
func (m *MemoryStore) CountBySignal() map[core.MarketSignal]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[core.MarketSignal]int, 4)
	for _, r := range m.entries {
		counts[r.Signal]++
	}
	return counts
}
