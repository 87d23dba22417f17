package lock

import (
	"context"
	"sync"
)

// Provider serializes critical sections keyed by an arbitrary string, e.g.
// "package:42" or "venue:7". Independent keys never block each other.
type Provider interface {
	// Acquire blocks until the key is free and returns a release func. The
	// release func must be called exactly once, on every exit path.
	Acquire(ctx context.Context, key string) (func(), error)
}

type entry struct {
	ch      chan struct{} // holds one token when the key is free
	waiters int
}

// KeyedMutex is an in-process Provider backed by a table of per-key channels.
// It gives no cross-process exclusion; in multi-instance deployments the
// storage layer's conditional update is the actual correctness boundary and
// this lock is only a fast-fail optimization.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*entry)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		e.ch <- struct{}{}
		m.keys[key] = e
	}
	e.waiters++
	m.mu.Unlock()

	select {
	case <-e.ch:
		return func() { m.release(key, e) }, nil
	case <-ctx.Done():
		m.mu.Lock()
		e.waiters--
		m.evictLocked(key, e)
		m.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.waiters--
	e.ch <- struct{}{}
	m.evictLocked(key, e)
}

// evictLocked drops the bookkeeping for a key once nobody holds or waits on it.
func (m *KeyedMutex) evictLocked(key string, e *entry) {
	if e.waiters == 0 && len(e.ch) == 1 {
		delete(m.keys, key)
	}
}

// Len reports how many keys currently have bookkeeping, for tests and
// introspection.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
