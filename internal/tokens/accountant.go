// Package tokens implements the Token Accountant (C10): a single
// process-wide cumulative tally of input/output/thinking tokens and call
// count, incremented under a mutex held only for the addition, with the
// broadcast happening after the mutex is released (spec Design Notes §9).
package tokens

import (
	"context"
	"sync"

	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// Accountant is the narrow add(delta) -> snapshot interface the spec
// mandates. It is safe for concurrent use.
type Accountant struct {
	mu    sync.Mutex
	tally models.TokenTally
	bus   *eventbus.Bus
}

// New creates an Accountant. bus may be nil (useful in tests); when set,
// every Add broadcasts a token_update to all connected clients.
func New(bus *eventbus.Bus) *Accountant {
	return &Accountant{bus: bus}
}

// Add applies delta and returns the new cumulative snapshot. It then
// broadcasts token_update after releasing the mutex, per invariant 6
// (TokenTally monotonically increases).
func (a *Accountant) Add(ctx context.Context, delta models.TokenDelta) models.TokenTally {
	a.mu.Lock()
	a.tally = a.tally.Add(delta)
	snapshot := a.tally
	a.mu.Unlock()

	if a.bus != nil {
		tokens := snapshot
		a.bus.Broadcast(ctx, models.EventTokenUpdate, models.StreamEvent{Tokens: &tokens})
	}
	return snapshot
}

// Snapshot returns the current cumulative tally without mutating it.
func (a *Accountant) Snapshot() models.TokenTally {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tally
}
