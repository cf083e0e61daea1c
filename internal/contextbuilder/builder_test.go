package contextbuilder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

func newFixture() (*Builder, *corpus.MemoryStore, *insights.MemoryLog) {
	store := corpus.NewMemoryStore(
		[]models.Case{
			{CaseNumber: "CN-001", Defendant: "Alpha", Charges: []string{"Assault"}},
			{CaseNumber: "CN-002", Defendant: "Bravo", Charges: []string{"Burglary"}},
		},
		nil,
		[]models.LegalFact{
			{CitationToken: "PC-211", Title: "Robbery statute", Summary: "Defines robbery as the felonious taking of property."},
		},
	)
	log := insights.NewMemoryLog()
	return New(store, log), store, log
}

func TestBuildFullCaseloadContextIsOrderedAndSeparated(t *testing.T) {
	b, _, _ := newFixture()
	out, err := b.BuildFullCaseloadContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idxAlpha := strings.Index(out, "CN-001")
	idxBravo := strings.Index(out, "CN-002")
	if idxAlpha == -1 || idxBravo == -1 || idxAlpha > idxBravo {
		t.Fatalf("expected CN-001 before CN-002 in output, got:\n%s", out)
	}
	if !strings.Contains(out, caseloadSeparator) {
		t.Fatal("expected a stable separator between cases")
	}
}

func TestBuildCaseContextIncludesPriorInsightsNewestFirst(t *testing.T) {
	b, _, log := newFixture()
	ctx := context.Background()
	log.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-001", Payload: []byte(`"first pass"`), Timestamp: time.Now()})
	log.Append(ctx, models.Insight{AnalysisType: models.AnalysisDeepAnalysis, Scope: "CN-001", Payload: []byte(`"second pass"`), Timestamp: time.Now().Add(time.Minute)})

	out, err := b.BuildCaseContext(ctx, "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "second pass") {
		t.Fatalf("expected prior insight payload in context, got:\n%s", out)
	}
	if strings.Index(out, "second pass") > strings.Index(out, "first pass") {
		t.Fatalf("expected the newer insight listed before the older one, got:\n%s", out)
	}
}

func TestBuildLegalContextRespectsTokenCap(t *testing.T) {
	b, _, _ := newFixture()
	out, err := b.BuildLegalContext(context.Background(), []string{"robbery"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimateTokens(out) > LegalContextTokenCap {
		t.Fatalf("expected output within token cap, got ~%d tokens", estimateTokens(out))
	}
	if !strings.Contains(out, "Robbery statute") {
		t.Fatalf("expected matching legal fact in output, got:\n%s", out)
	}
}

func TestBuildMemoryContextDefaultsLimit(t *testing.T) {
	b, _, log := newFixture()
	ctx := context.Background()
	for i := 0; i < DefaultMemoryLimit+3; i++ {
		log.Append(ctx, models.Insight{AnalysisType: models.AnalysisChat, Scope: models.FullCaseloadScope, Payload: []byte(`"note"`), Timestamp: time.Now()})
	}

	out, err := b.BuildMemoryContext(ctx, models.FullCaseloadScope, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Count(out, "\n")
	if lines != DefaultMemoryLimit {
		t.Fatalf("expected %d lines (default memory limit), got %d", DefaultMemoryLimit, lines)
	}
}
