package stories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoryLocks_SerializesSameStory(t *testing.T) {
	t.Parallel()

	sl := newStoryLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := sl.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestStoryLocks_ReleasesEntries(t *testing.T) {
	t.Parallel()

	sl := newStoryLocks()

	unlock := sl.Lock(1)
	unlock()
	unlock2 := sl.Lock(2)
	unlock2()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	assert.Empty(t, sl.locks)
}

func TestStoryLocks_IndependentStoriesDoNotBlock(t *testing.T) {
	t.Parallel()

	sl := newStoryLocks()

	unlockA := sl.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := sl.Lock(2)
		unlockB()
		close(done)
	}()

	<-done
}
