// Package eventbus is the Event Bus (C8): a per-client push channel that
// fans out namespaced streaming events and token snapshots. Namespacing is
// a deterministic function of AnalysisType, never string concatenation at
// call sites (spec Design Notes §9).
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// NamespaceFor returns the event-name prefix for an AnalysisType. It is the
// single place the workflow-tag -> prefix mapping lives.
func NamespaceFor(a models.AnalysisType) string {
	switch a {
	case models.AnalysisHealthCheck:
		return "health_check"
	case models.AnalysisDeepAnalysis:
		return "deep_analysis"
	case models.AnalysisAdversarial:
		return "adversarial"
	case models.AnalysisProsecution:
		return "prosecution"
	case models.AnalysisDefense:
		return "defense"
	case models.AnalysisJudge:
		return "judge"
	case models.AnalysisMotion:
		return "motion"
	case models.AnalysisEvidence:
		return "evidence"
	case models.AnalysisChat:
		return "chat"
	case models.AnalysisHearingPrep:
		return "hearing_prep"
	case models.AnalysisClientLetter:
		return "client_letter"
	case models.AnalysisCascade:
		return "cascade"
	case models.AnalysisWidget:
		return "widget"
	default:
		return string(a)
	}
}

// EventName composes the namespaced wire name for (analysis, kind), e.g.
// ("health_check", thinking_delta) -> "health_check_thinking_delta".
func EventName(a models.AnalysisType, kind models.StreamEventKind) string {
	switch kind {
	case models.EventResults:
		return NamespaceFor(a) + "_results"
	case models.EventPhase:
		return "adversarial_phase"
	default:
		return NamespaceFor(a) + "_" + string(kind)
	}
}

// droppable reports whether a frame kind may be dropped under backpressure.
// Delta frames are droppable; lifecycle, completion, tool, and error frames
// are never dropped.
func droppable(kind models.StreamEventKind) bool {
	switch kind {
	case models.EventThinkingDelta, models.EventResponseDelta:
		return true
	default:
		return false
	}
}

// Sink receives events for one connected client. Implementations must be
// safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e models.StreamEvent)
}

// Bus owns one Sink per client and a shared monotonic sequence counter so
// that Token Accountant broadcasts and per-workflow events interleave in a
// single observable order per client.
type Bus struct {
	mu      sync.RWMutex
	clients map[string]Sink
	seq     uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{clients: make(map[string]Sink)}
}

// Register attaches a Sink for clientID, replacing any previous one.
func (b *Bus) Register(clientID string, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[clientID] = sink
}

// Unregister detaches clientID's Sink.
func (b *Bus) Unregister(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, clientID)
}

func (b *Bus) sinkFor(clientID string) (Sink, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.clients[clientID]
	return s, ok
}

// Publish emits one namespaced event to clientID. It is a no-op if the
// client has no registered Sink (e.g. it disconnected mid-workflow).
func (b *Bus) Publish(ctx context.Context, clientID string, a models.AnalysisType, e models.StreamEvent) {
	sink, ok := b.sinkFor(clientID)
	if !ok {
		return
	}
	e.Analysis = a
	e.Kind = streamEventKind(e)
	e.Name = EventName(a, e.Kind)
	e.Droppable = droppable(e.Kind)
	e.Sequence = atomic.AddUint64(&b.seq, 1)
	sink.Emit(ctx, e)
}

// PublishGlobal emits a bus-wide event (token_update, caseload_loaded, ...)
// that is not namespaced by workflow.
func (b *Bus) PublishGlobal(ctx context.Context, clientID string, kind models.StreamEventKind, e models.StreamEvent) {
	sink, ok := b.sinkFor(clientID)
	if !ok {
		return
	}
	e.Kind = kind
	e.Name = string(kind)
	e.Sequence = atomic.AddUint64(&b.seq, 1)
	sink.Emit(ctx, e)
}

// Broadcast sends a bus-wide event to every registered client, used for
// token_update snapshots after Token Accountant increments.
func (b *Bus) Broadcast(ctx context.Context, kind models.StreamEventKind, e models.StreamEvent) {
	b.mu.RLock()
	clients := make([]Sink, 0, len(b.clients))
	for _, s := range b.clients {
		clients = append(clients, s)
	}
	b.mu.RUnlock()

	e.Kind = kind
	e.Name = string(kind)
	for _, s := range clients {
		ev := e
		ev.Sequence = atomic.AddUint64(&b.seq, 1)
		s.Emit(ctx, ev)
	}
}

// streamEventKind is a no-op passthrough; kept as a seam so callers always
// set Kind before Publish rather than relying on a zero value.
func streamEventKind(e models.StreamEvent) models.StreamEventKind {
	return e.Kind
}
