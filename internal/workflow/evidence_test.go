package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/contextbuilder"
	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/toolloop"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

func newTestEngineWithEvidence(t *testing.T, responseText string, evidence []models.EvidenceItem) (*Engine, *insights.MemoryLog) {
	t.Helper()
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha", Status: models.CaseStatusOpen}},
		evidence, nil,
	)
	log := insights.NewMemoryLog()
	builder := contextbuilder.New(store, log)
	bus := eventbus.New()
	provider := &scriptedProvider{text: responseText}
	runner := streaming.New(provider, bus, nil)
	registry := tools.NewRegistry()
	loop := toolloop.New(runner, registry, bus)

	engine := New(store, store, builder, runner, loop, registry, log, bus, nil)
	return engine, log
}

func TestRunEvidenceAnalysisAttachesMediaWhenPresent(t *testing.T) {
	evidence := []models.EvidenceItem{{
		ID:         "ev-1",
		CaseNumber: "CN-001",
		Type:       models.EvidenceDashcam,
		MediaPath:  "/media/ev-1.jpg",
		Title:      "Dashcam still",
	}}
	engine, log := newTestEngineWithEvidence(t, "The footage shows the stop was pretextual.", evidence)

	text, err := engine.RunEvidenceAnalysis(context.Background(), "client-1", "CN-001", "ev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Fatalf("expected non-empty analysis text")
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisEvidence), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one evidence insight scoped to CN-001, got %v err=%v", recent, err)
	}
}

func TestRunEvidenceAnalysisReturnsNotFoundForUnknownItem(t *testing.T) {
	engine, _ := newTestEngineWithEvidence(t, "irrelevant", nil)

	_, err := engine.RunEvidenceAnalysis(context.Background(), "client-1", "CN-001", "missing")
	if err != corpus.ErrNotFound {
		t.Fatalf("expected corpus.ErrNotFound, got %v", err)
	}
}
