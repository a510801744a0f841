// Package keylock provides named reader/writer locks used to serialize
// destructive collection operations against concurrent reads and writes.
package keylock

import "sync"

// Registry hands out one RWMutex per name. Locks are never evicted: the
// set of collection names is small and bounded by operator action.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New creates an empty lock registry.
func New() *Registry {
	return &Registry{locks: make(map[string]*sync.RWMutex)}
}

func (r *Registry) get(name string) *sync.RWMutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		r.locks[name] = l
	}
	return l
}

// Lock acquires the exclusive lock for name (clear, rebuild, delete).
func (r *Registry) Lock(name string) { r.get(name).Lock() }

// Unlock releases the exclusive lock for name.
func (r *Registry) Unlock(name string) { r.get(name).Unlock() }

// RLock acquires a shared lock for name (query, upsert).
func (r *Registry) RLock(name string) { r.get(name).RLock() }

// RUnlock releases a shared lock for name.
func (r *Registry) RUnlock(name string) { r.get(name).RUnlock() }
