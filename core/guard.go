package core

import (
	"fmt"
	"sync"
)

// entryGuard is a non-reentrant mutual exclusion flag. Every ledger
// operation that performs an external transfer enters the guard for its
// full duration; a nested entry while one is in flight is rejected rather
// than queued, because the nested caller is by definition a transfer
// callback re-entering the same instance.
type entryGuard struct {
	mu   sync.Mutex
	held bool
}

func newEntryGuard() *entryGuard {
	return &entryGuard{}
}

// Enter claims the guard and returns the matching release func. The release
// func must run on every exit path, success or failure.
func (g *entryGuard) Enter(operation string) (func(), error) {
	if g == nil {
		return nil, fmt.Errorf("core: entry guard is not configured")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return nil, fmt.Errorf("%w: %s", ErrReentrantCall, operation)
	}
	g.held = true
	return g.release, nil
}

func (g *entryGuard) release() {
	g.mu.Lock()
	g.held = false
	g.mu.Unlock()
}
