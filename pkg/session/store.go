package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type storeEntry struct {
	session  *RouteSession
	lastUsed atomic.Int64 // unix nano
}

func (e *storeEntry) touch(now time.Time) {
	e.lastUsed.Store(now.UnixNano())
}

// Store keeps the route sessions of every connected user in memory. Sessions
// idle for longer than the janitor's max idle time are dropped.
type Store struct {
	mu       sync.RWMutex
	finder   PathFinder
	sessions map[string]*storeEntry
	now      func() time.Time
}

func NewStore(finder PathFinder) *Store {
	return &Store{
		finder:   finder,
		sessions: make(map[string]*storeEntry),
		now:      time.Now,
	}
}

func (st *Store) Create() (string, *RouteSession) {
	id := uuid.NewString()
	e := &storeEntry{session: New(st.finder)}
	e.touch(st.now())

	st.mu.Lock()
	st.sessions[id] = e
	st.mu.Unlock()
	return id, e.session
}

// Get returns the session and marks it as used.
func (st *Store) Get(id string) (*RouteSession, bool) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.touch(st.now())
	return e.session, true
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.deleteLocked(id)
}

func (st *Store) deleteLocked(id string) bool {
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Sweep deletes every session last used before cutoff and returns how many
// were removed.
func (st *Store) Sweep(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, e := range st.sessions {
		if e.lastUsed.Load() < cutoff.UnixNano() && st.deleteLocked(id) {
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps sessions idle for longer than maxIdle every interval until
// ctx is done.
func (st *Store) RunJanitor(ctx context.Context, interval, maxIdle time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := st.Sweep(st.now().Add(-maxIdle))
			if removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
