package stories

import "sync"

// storyLocks serializes chunk application per story ID. Every chunk applies a
// read-modify-write against the story and its tracker, so two chunks for the
// same story must never interleave. Locks are reference counted so the map
// doesn't grow with every story ever uploaded.
type storyLocks struct {
	mu    sync.Mutex
	locks map[int]*storyLock
}

type storyLock struct {
	mu   sync.Mutex
	refs int
}

func newStoryLocks() *storyLocks {
	return &storyLocks{locks: map[int]*storyLock{}}
}

// Lock acquires the lock for the given story ID and returns its unlock
// function.
func (sl *storyLocks) Lock(storyID int) func() {
	sl.mu.Lock()
	l, ok := sl.locks[storyID]
	if !ok {
		l = &storyLock{}
		sl.locks[storyID] = l
	}
	l.refs++
	sl.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		sl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(sl.locks, storyID)
		}
		sl.mu.Unlock()
	}
}
