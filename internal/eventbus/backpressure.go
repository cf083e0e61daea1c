package eventbus

import (
	"context"
	"sync/atomic"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// BackpressureConfig sizes the two lanes of a BackpressureSink.
type BackpressureConfig struct {
	HighPriBuffer int // non-droppable: lifecycle, tool, results, error, token_update
	LowPriBuffer  int // droppable: thinking/response deltas
}

// DefaultBackpressureConfig returns sensible defaults.
func DefaultBackpressureConfig() BackpressureConfig {
	return BackpressureConfig{HighPriBuffer: 32, LowPriBuffer: 256}
}

// BackpressureSink is a per-client Sink that sheds delta events when the
// client can't keep up, so one slow connection cannot stall the workflow
// that's feeding it (§5). Lifecycle events wait for room in their lane; one
// is dropped only if ctx is done while that lane is still full.
type BackpressureSink struct {
	highPri chan models.StreamEvent
	lowPri  chan models.StreamEvent
	merged  chan models.StreamEvent
	dropped uint64
	closed  uint32
}

// NewBackpressureSink creates a sink and starts its merge goroutine. The
// caller consumes the returned channel (e.g. to forward to a websocket).
func NewBackpressureSink(cfg BackpressureConfig) (*BackpressureSink, <-chan models.StreamEvent) {
	if cfg.HighPriBuffer <= 0 {
		cfg.HighPriBuffer = 32
	}
	if cfg.LowPriBuffer <= 0 {
		cfg.LowPriBuffer = 256
	}
	s := &BackpressureSink{
		highPri: make(chan models.StreamEvent, cfg.HighPriBuffer),
		lowPri:  make(chan models.StreamEvent, cfg.LowPriBuffer),
		merged:  make(chan models.StreamEvent, cfg.HighPriBuffer),
	}
	go s.mergeLoop()
	return s, s.merged
}

func (s *BackpressureSink) mergeLoop() {
	defer close(s.merged)
	for {
		select {
		case e, ok := <-s.highPri:
			if !ok {
				s.drainLowPri()
				return
			}
			s.merged <- e
			continue
		default:
		}

		select {
		case e, ok := <-s.highPri:
			if !ok {
				s.drainLowPri()
				return
			}
			s.merged <- e
		case e, ok := <-s.lowPri:
			if ok {
				s.merged <- e
			}
		}
	}
}

func (s *BackpressureSink) drainLowPri() {
	for e := range s.lowPri {
		s.merged <- e
	}
}

// Emit implements Sink. Droppable events are shed when the low-priority
// lane is full; every other event blocks (respecting ctx) until delivered.
func (s *BackpressureSink) Emit(ctx context.Context, e models.StreamEvent) {
	if atomic.LoadUint32(&s.closed) == 1 {
		return
	}
	if e.Droppable {
		select {
		case s.lowPri <- e:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
		return
	}

	select {
	case s.highPri <- e:
	case <-ctx.Done():
		select {
		case s.highPri <- e:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	}
}

// DroppedCount returns the number of events shed so far: droppable events
// refused by a full low-priority lane, plus non-droppable events dropped
// because ctx ended while the high-priority lane was full.
func (s *BackpressureSink) DroppedCount() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close stops accepting events and unwinds the merge goroutine.
func (s *BackpressureSink) Close() {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return
	}
	close(s.highPri)
	close(s.lowPri)
}
