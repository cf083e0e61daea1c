package insights

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	first, err := l.Append(ctx, models.Insight{AnalysisType: models.AnalysisHealthCheck, Scope: models.FullCaseloadScope, Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-001", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("expected monotonically growing sequence, got %d then %d", first.Sequence, second.Sequence)
	}
}

func TestListFiltersByScopeAndTypeNewestFirst(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	base := time.Now()

	l.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-001", Timestamp: base})
	l.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-001", Timestamp: base.Add(time.Minute)})
	l.Append(ctx, models.Insight{AnalysisType: models.AnalysisChat, Scope: "CN-001", Timestamp: base.Add(2 * time.Minute)})
	l.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-002", Timestamp: base})

	got, err := l.List(ctx, "CN-001", string(models.AnalysisDeepAnalysis), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Fatalf("expected newest first, got %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestListRespectsLimit(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		l.Append(ctx, models.Insight{AnalysisType: models.AnalysisChat, Scope: models.FullCaseloadScope, Timestamp: time.Now()})
	}
	got, err := l.List(ctx, "", "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(got))
	}
}
