package service

import "sync"

// Locks serializes balance-mutating operations per user. Different users
// never contend; there is deliberately no global lock. One instance is shared
// by every service that reads a balance before writing. Entries are kept for
// the life of the process, which is bounded by the active user set.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the user's lock and returns the unlock func.
func (l *Locks) Lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
