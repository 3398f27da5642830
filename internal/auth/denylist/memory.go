package denylist

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Denylist. It is only correct for a single
// instance deployment; use Redis when running more than one replica.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemory creates a memory denylist with a janitor evicting expired keys
// every interval. An interval <= 0 disables the janitor.
func NewMemory(interval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if interval > 0 {
		go m.janitor(interval)
	} else {
		close(m.done)
	}
	return m
}

func (m *Memory) Revoke(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = m.now().Add(ttl)
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, keys ...string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	for _, k := range keys {
		if exp, ok := m.entries[k]; ok && now.Before(exp) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Close stops the janitor.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

// Len returns the number of keys held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) janitor(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evict()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) evict() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
		}
	}
}
