package reminder

import "sync"

// eventLocks is a keyed mutual-exclusion map: one exclusive section per
// event id, so transitions and job firings for the same event serialize
// while unrelated events proceed in parallel. Entries are reference
// counted and dropped when nobody holds or awaits them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[int64]*eventLock
}

type eventLock struct {
	sync.Mutex
	refs int
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[int64]*eventLock)}
}

// Lock acquires the event's exclusive section and returns its release
// function. The release must run on every exit path.
func (l *eventLocks) Lock(eventID int64) func() {
	l.mu.Lock()
	e := l.locks[eventID]
	if e == nil {
		e = &eventLock{}
		l.locks[eventID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, eventID)
		}
		l.mu.Unlock()
	}
}
