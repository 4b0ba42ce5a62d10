package store

import (
	"context"
	"sync"
)

// Memory keeps results in process memory.
type Memory struct {
	mu     sync.RWMutex
	stats  Stats
	recent []Result // newest last
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordRound(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.add(r)
	m.recent = append(m.recent, r)
	if len(m.recent) > recentCap {
		m.recent = m.recent[len(m.recent)-recentCap:]
	}
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats, nil
}

// Recent returns up to limit results, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.recent) {
		limit = len(m.recent)
	}
	out := make([]Result, 0, limit)
	for i := len(m.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.recent[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
