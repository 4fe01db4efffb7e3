package project

import "sync"

// lockRegistry hands out one mutex per project id, serializing every
// read-modify-write on an aggregate. Entries are never released; the
// working set is bounded by the number of distinct projects touched by a
// process, and a mutex is two words.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for id and returns its unlock function.
func (r *lockRegistry) acquire(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
