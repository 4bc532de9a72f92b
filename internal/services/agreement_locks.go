package services

import "sync"

// agreementLocks serializes read-modify-write sequences per agreement id. Entries are dropped once no
// goroutine holds or waits on them.
type agreementLocks struct {
	mu    sync.Mutex
	locks map[string]*agreementLock
}

type agreementLock struct {
	mu   sync.Mutex
	refs int
}

func newAgreementLocks() *agreementLocks {
	return &agreementLocks{locks: make(map[string]*agreementLock)}
}

// Lock blocks until the caller owns id and returns the matching unlock func.
func (l *agreementLocks) Lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &agreementLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *agreementLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
