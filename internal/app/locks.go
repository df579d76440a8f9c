package service

import "sync"

// memberLocks hands out one mutex per member id so streak advancement and
// task materialization for the same member never interleave, while distinct
// members proceed in parallel. Entries are reference counted and removed
// once the last holder releases, keeping the map bounded by concurrency,
// not by member population.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*memberLock
}

type memberLock struct {
	sync.Mutex
	refs int
}

func newMemberLocks() *memberLocks {
	return &memberLocks{locks: make(map[string]*memberLock)}
}

// Lock acquires the mutex for memberID and returns the matching unlock.
func (m *memberLocks) Lock(memberID string) func() {
	m.mu.Lock()
	l, ok := m.locks[memberID]
	if !ok {
		l = &memberLock{}
		m.locks[memberID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, memberID)
		}
		m.mu.Unlock()
	}
}
