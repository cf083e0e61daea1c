// Package gate implements the Request Gate (C11): a per-client single-flight
// lock so a second workflow for a client that is already mid-analysis is
// rejected rather than interleaved (spec §4.11, §5).
package gate

import (
	"strings"
	"sync"
)

type clientLock struct {
	mu   sync.Mutex
	refs int
}

// Gate owns one mutex per client, created lazily and removed once its last
// holder releases it.
type Gate struct {
	mu    sync.Mutex
	locks map[string]*clientLock
}

// New creates an empty Gate.
func New() *Gate {
	return &Gate{locks: make(map[string]*clientLock)}
}

// TryAcquire attempts to take the lock for clientID without blocking. On
// success it returns a release func that must be called exactly once, on
// workflow termination (success, failure, or cancellation). On conflict it
// returns ok == false and a nil release func; the caller should emit
// analysis_error {message: "busy"} and return without starting a workflow.
func (g *Gate) TryAcquire(clientID string) (release func(), ok bool) {
	if strings.TrimSpace(clientID) == "" {
		return func() {}, true
	}

	g.mu.Lock()
	lock := g.locks[clientID]
	if lock == nil {
		lock = &clientLock{}
		g.locks[clientID] = lock
	}
	if !lock.mu.TryLock() {
		g.mu.Unlock()
		return nil, false
	}
	lock.refs++
	g.mu.Unlock()

	return func() {
		lock.mu.Unlock()
		g.mu.Lock()
		lock.refs--
		if lock.refs <= 0 {
			delete(g.locks, clientID)
		}
		g.mu.Unlock()
	}, true
}
