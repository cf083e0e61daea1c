// Package insights implements the Insight Log (C9): an append-only record
// of completed analyses, queryable by scope and type. Nothing is ever
// deleted or mutated once appended (spec §3 Lifecycle: "Insights accumulate
// forever within a session").
package insights

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// Log is the interface the Context Builder and get_prior_analyses tool use.
type Log interface {
	// Append records a completed analysis and assigns it the next sequence
	// number. The caller's Insight.ID and Timestamp are respected if set.
	Append(ctx context.Context, insight models.Insight) (models.Insight, error)

	// List returns insights matching scope and analysisType (either may be
	// empty to mean "any"), newest first, capped at limit (0 means
	// unbounded).
	List(ctx context.Context, scope, analysisType string, limit int) ([]models.Insight, error)
}

// MemoryLog is an in-process, append-only Log.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []models.Insight
	seq     uint64
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(_ context.Context, insight models.Insight) (models.Insight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	insight.Sequence = atomic.AddUint64(&l.seq, 1)
	l.entries = append(l.entries, insight)
	return insight, nil
}

func (l *MemoryLog) List(_ context.Context, scope, analysisType string, limit int) ([]models.Insight, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matches []models.Insight
	for _, ins := range l.entries {
		if scope != "" && ins.Scope != scope {
			continue
		}
		if analysisType != "" && string(ins.AnalysisType) != analysisType {
			continue
		}
		matches = append(matches, ins)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Sequence > matches[j].Sequence
		}
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
