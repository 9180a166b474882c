/*
locks.go - Per-key mutual exclusion for mutation paths

PURPOSE:
  Every mutation entry point runs under per-entity-key mutual exclusion:
  (employee, date) for tap processing and the sweeper, (employee) for TIL
  balance recalculation. Two taps for the same employee in the same second
  must serialize or tap-count parity and current status get corrupted.

WHY AN ADVISORY LOCK HERE:
  The SQLite store serializes individual statements but not the
  fetch-or-create-then-mutate-then-save sequence. The KeyedMutex closes that
  window. Different employees share nothing and proceed in parallel.

TIMEOUT:
  Acquisition is bounded. On timeout the caller gets ErrConcurrencyConflict
  and is expected to retry with backoff, never to proceed unlocked.
*/
package attendance

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex provides mutual exclusion per string key. Entries are
// reference-counted and removed when the last waiter releases, so the map
// does not grow with the number of historical employee-days.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*lockEntry)}
}

// Acquire blocks until the key is held, the timeout elapses, or ctx is
// canceled. On success it returns a release function that MUST be called
// exactly once.
func (m *KeyedMutex) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	m.mu.Lock()
	e, ok := m.keys[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		m.keys[key] = e
	}
	e.refs++
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		release := func() {
			<-e.sem
			m.unref(key, e)
		}
		return release, nil
	case <-timer.C:
		m.unref(key, e)
		return nil, &LockConflictError{Key: key}
	case <-ctx.Done():
		m.unref(key, e)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) unref(key string, e *lockEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.keys, key)
	}
	m.mu.Unlock()
}
