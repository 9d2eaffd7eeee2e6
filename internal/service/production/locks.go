package production

import (
	"slices"
	"sync"

	"github.com/Additional-Code/millflow/internal/entity"
)

// stageLocks serialises mutations per key. Entries are dropped once no
// goroutine holds or waits on them.
type stageLocks struct {
	mu    sync.Mutex
	locks map[string]*stageLock
}

type stageLock struct {
	sync.Mutex
	refs int
}

func newStageLocks() *stageLocks {
	return &stageLocks{locks: make(map[string]*stageLock)}
}

// lock blocks until key is free and returns the matching unlock.
func (l *stageLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &stageLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// lockStages takes the locks of several stages of one order in pipeline
// order, so two callers holding overlapping sets never wait on each other.
func (l *stageLocks) lockStages(orderID string, stages ...entity.Stage) func() {
	ordered := slices.Clone(stages)
	slices.SortFunc(ordered, func(a, b entity.Stage) int { return a.Index() - b.Index() })
	ordered = slices.Compact(ordered)

	unlocks := make([]func(), 0, len(ordered))
	for _, stage := range ordered {
		unlocks = append(unlocks, l.lock(stageKey(orderID, stage)))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func stageKey(orderID string, stage entity.Stage) string {
	return orderID + "/" + string(stage)
}

func (l *stageLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
