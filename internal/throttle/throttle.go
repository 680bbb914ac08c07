// Package throttle implements the per-key cooldown map shared by concurrent
// pipeline runs.
package throttle

import (
	"sync"
	"time"
)

const (
	DefaultHorizon = 10 * time.Minute
	DefaultMaxKeys = 10_000
)

type Config struct {
	// Horizon is how long an entry is kept after its last accepted event.
	Horizon time.Duration
	// MaxKeys triggers an eviction sweep when exceeded.
	MaxKeys int
	Now     func() time.Time
}

// Map remembers when each key was last let through.
type Map struct {
	mu        sync.Mutex
	last      map[string]time.Time
	horizon   time.Duration
	maxKeys   int
	now       func() time.Time
	lastSweep time.Time
}

func New(cfg Config) *Map {
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Map{
		last:    make(map[string]time.Time),
		horizon: cfg.Horizon,
		maxKeys: cfg.MaxKeys,
		now:     cfg.Now,
	}
}

// Allow reports whether key is outside its cooldown and, if so, records now
// as its last timestamp. The check and the update happen under one lock so
// two concurrent callers with the same key cannot both pass.
func (m *Map) Allow(key string, cooldown time.Duration) bool {
	if cooldown <= 0 {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if prev, ok := m.last[key]; ok && now.Sub(prev) < cooldown {
		return false
	}
	m.last[key] = now

	if len(m.last) > m.maxKeys || now.Sub(m.lastSweep) >= m.horizon {
		m.evictLocked(now)
	}
	return true
}

// Len returns the number of tracked keys.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}

func (m *Map) evictLocked(now time.Time) {
	m.lastSweep = now
	for k, t := range m.last {
		if now.Sub(t) > m.horizon {
			delete(m.last, k)
		}
	}
	if len(m.last) <= m.maxKeys {
		return
	}
	// Still over budget with only fresh entries: drop the oldest.
	for len(m.last) > m.maxKeys {
		var oldestKey string
		var oldest time.Time
		for k, t := range m.last {
			if oldestKey == "" || t.Before(oldest) {
				oldestKey, oldest = k, t
			}
		}
		delete(m.last, oldestKey)
	}
}
