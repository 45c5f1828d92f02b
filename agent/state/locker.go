package state

import (
	"context"
	"sync"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// SessionLocker serializes work on the same session id while letting
// different sessions proceed in parallel. Unused entries are reclaimed by
// reference counting.
type SessionLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewSessionLocker() *SessionLocker {
	return &SessionLocker{
		locks: make(map[string]*lockEntry),
	}
}

func (l *SessionLocker) acquire(sessionID string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (l *SessionLocker) release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, sessionID)
	}
}

// WithLock runs fn while holding the lock for sessionID.
func (l *SessionLocker) WithLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := l.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		l.release(sessionID)
	}()

	return fn(ctx)
}

// Active returns how many session ids currently hold or wait for a lock.
func (l *SessionLocker) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
