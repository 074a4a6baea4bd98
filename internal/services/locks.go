package services

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes operations per entity ID within one process. The
// database row lock covers cross-process races; this keeps the mutual
// exclusion invariant intact when the service runs against storage without
// SELECT ... FOR UPDATE semantics.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[uuid.UUID]*keyedLock{}}
}

// lock blocks until the per-ID mutex is held and returns the release func.
func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &keyedLock{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
