package coordination

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a single-process Locker used when Redis is not configured
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, ok := l.held[key]; ok && now.Before(expiresAt) {
		return nil, false, nil
	}
	expiresAt := now.Add(ttl)
	l.held[key] = expiresAt

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only drop our own hold; an expired hold may have been retaken.
		if l.held[key].Equal(expiresAt) {
			delete(l.held, key)
		}
	}
	return release, true, nil
}

// MemorySuppressor is a single-process Suppressor used when Redis is not configured
type MemorySuppressor struct {
	mu    sync.Mutex
	fired map[string]time.Time
	clock func() time.Time
}

// NewMemorySuppressor creates an in-process suppressor
func NewMemorySuppressor() *MemorySuppressor {
	return &MemorySuppressor{fired: make(map[string]time.Time), clock: time.Now}
}

func (s *MemorySuppressor) Allow(_ context.Context, key string, window time.Duration) (bool, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.fired[key]; ok && now.Sub(last) < window {
		return false, nil
	}
	s.fired[key] = now

	// Opportunistic cleanup keeps the map bounded by the active window.
	for k, ts := range s.fired {
		if now.Sub(ts) >= window {
			delete(s.fired, k)
		}
	}
	return true, nil
}
