package storage

import "sync"

// KeyLocks provides mutual exclusion per store key. Lock blocks until the
// key's mutex is held and returns the corresponding unlock function.
type KeyLocks interface {
	Lock(key StoreKey) (unlock func())
}

// DefaultLocks is a registry of real mutexes, created lazily per key and
// retained for the lifetime of the registry.
type DefaultLocks struct {
	mu    sync.Mutex
	locks map[StoreKey]*sync.Mutex
}

// NewDefaultLocks returns an empty lock registry.
func NewDefaultLocks() *DefaultLocks {
	return &DefaultLocks{locks: make(map[StoreKey]*sync.Mutex)}
}

// Lock acquires the mutex for key.
func (l *DefaultLocks) Lock(key StoreKey) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// DisabledLocks is a no-op lock registry for read-only or single-goroutine
// clients.
type DisabledLocks struct{}

// Lock returns immediately with a no-op unlock.
func (DisabledLocks) Lock(StoreKey) func() { return func() {} }
