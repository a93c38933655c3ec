// Package kvcache is the reload-surviving key/value store backing the
// feature-collection and score caches. Absence or corruption of an entry
// is always a miss, never an error surfaced to the engine.
package kvcache

import (
	"context"
	"sync"
	"time"
)

// Store is a persistent key -> string cache. Get reports a miss with
// ok=false; implementations only return an error for infrastructure
// failures, and callers are expected to treat those as misses too.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Memory is an in-process Store used in tests and as a fallback when no
// persistent backend is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl != 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Close() error { return nil }
