package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Backend with per-entry TTL. A sweeper goroutine
// drops expired entries until Close is called.
type Memory struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory returns a Memory cache sweeping every sweep interval; a sweep
// of 0 disables the sweeper (expired entries are still never served).
func NewMemory(ttl, sweep time.Duration) *Memory {
	m := &Memory{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go m.cleanup(sweep)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[key]
	if !ok || m.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = entry{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Len counts stored entries, expired ones included until swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]entry)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.store {
		if now.After(e.expiresAt) {
			delete(m.store, key)
		}
	}
}
