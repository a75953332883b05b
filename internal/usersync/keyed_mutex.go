// Package usersync serializes pipeline executions per user so that two
// concurrent messages from one user cannot both pass the admission check
// before either exchange is persisted.
package usersync

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex provides one mutex per key with automatic cleanup of idle entries.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewKeyedMutex builds an empty registry.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[int64]*entry),
	}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key and drops the entry once nobody waits on it.
func (k *KeyedMutex) Unlock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if ok {
		e.refs--
		if e.refs <= 0 {
			delete(k.entries, key)
		}
	}
	k.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}

// Len reports the number of live entries, used by tests.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
