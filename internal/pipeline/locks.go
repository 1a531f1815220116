package pipeline

import "sync"

// caseLocks serializes persist phases per case id. Entries are refcounted
// so the map does not grow with every case ever processed.
type caseLocks struct {
	mu    sync.Mutex
	locks map[string]*caseLock
}

type caseLock struct {
	mu   sync.Mutex
	refs int
}

func newCaseLocks() *caseLocks {
	return &caseLocks{locks: make(map[string]*caseLock)}
}

// acquire blocks until this goroutine holds the lock for caseID.
func (c *caseLocks) acquire(caseID string) {
	c.mu.Lock()
	entry, ok := c.locks[caseID]
	if !ok {
		entry = &caseLock{}
		c.locks[caseID] = entry
	}
	entry.refs++
	c.mu.Unlock()

	entry.mu.Lock()
}

func (c *caseLocks) release(caseID string) {
	c.mu.Lock()
	entry := c.locks[caseID]
	entry.refs--
	if entry.refs == 0 {
		delete(c.locks, caseID)
	}
	c.mu.Unlock()

	entry.mu.Unlock()
}
