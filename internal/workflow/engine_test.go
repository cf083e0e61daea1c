package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/citations"
	"github.com/haasonsaas/case-nexus/internal/contextbuilder"
	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/toolloop"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

type scriptedProvider struct {
	text string
}

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	ch := make(chan *llm.CompletionChunk, 2)
	ch <- &llm.CompletionChunk{Text: p.text}
	ch <- &llm.CompletionChunk{Done: true, InputTokens: 10, OutputTokens: 10}
	close(ch)
	return ch, nil
}
func (p *scriptedProvider) Name() string        { return "scripted" }
func (p *scriptedProvider) Models() []llm.Model { return nil }
func (p *scriptedProvider) SupportsTools() bool { return false }

func newTestEngine(t *testing.T, responseText string) (*Engine, *corpus.MemoryStore, *insights.MemoryLog) {
	t.Helper()
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha", Status: models.CaseStatusOpen}},
		nil, nil,
	)
	log := insights.NewMemoryLog()
	builder := contextbuilder.New(store, log)
	bus := eventbus.New()
	provider := &scriptedProvider{text: responseText}
	runner := streaming.New(provider, bus, nil)
	registry := tools.NewRegistry()
	loop := toolloop.New(runner, registry, bus)

	engine := New(store, store, builder, runner, loop, registry, log, bus, nil)
	return engine, store, log
}

func TestRunHealthCheckParsesAndReplacesResults(t *testing.T) {
	response := `{"alerts":[{"severity":"warning","type":"deadline","case_number":"CN-001","title":"Hearing soon","message":"Hearing in 3 days"}],"connections":[],"priority_actions":[{"case_number":"CN-001","action":"File motion","urgency":"this_week","reason":"Deadline approaching"}]}`
	engine, store, log := newTestEngine(t, response)

	result, err := engine.RunHealthCheck(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Alerts) != 1 || result.Alerts[0].ID == "" {
		t.Fatalf("expected one alert with an assigned ID, got %+v", result.Alerts)
	}

	alerts, err := store.ListAlerts(context.Background(), corpus.AlertFilter{})
	if err != nil || len(alerts) != 1 {
		t.Fatalf("expected the store to be updated with 1 alert, got %v err=%v", alerts, err)
	}

	recent, err := log.List(context.Background(), models.FullCaseloadScope, string(models.AnalysisHealthCheck), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one health_check insight, got %v err=%v", recent, err)
	}
}

func TestRunHealthCheckSurfacesRawTextOnParseFailure(t *testing.T) {
	engine, store, log := newTestEngine(t, "not json at all")

	result, err := engine.RunHealthCheck(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Alerts) != 0 {
		t.Fatalf("expected an empty result on parse failure, got %+v", result)
	}

	alerts, _ := store.ListAlerts(context.Background(), corpus.AlertFilter{})
	if len(alerts) != 0 {
		t.Fatalf("expected the store untouched on parse failure, got %v", alerts)
	}

	recent, err := log.List(context.Background(), models.FullCaseloadScope, string(models.AnalysisHealthCheck), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected the raw-text fallback still logged as an insight, got %v err=%v", recent, err)
	}
}

func TestRunMotionGenerationInvokesCitationVerifierAutomatically(t *testing.T) {
	engine, _, _ := newTestEngine(t, "This motion cites 347 U.S. 483 in support.")
	idx := citations.NewMemoryIndex(map[string]citations.Entry{
		"347 U.S. 483": {CaseName: "Brown v. Board of Education"},
	})
	engine.citations = citations.New(idx, nil)

	result, err := engine.RunMotionGeneration(context.Background(), "client-1", "CN-001", "motion to suppress", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CitationReport == nil || len(result.CitationReport.Verified) != 1 {
		t.Fatalf("expected the citation to be auto-verified, got %+v", result.CitationReport)
	}
}

func TestSplitCascadeResponseExtractsActionsList(t *testing.T) {
	text := "Strategic brief text here.\n\nACTIONS: [{\"label\":\"File motion\",\"reason\":\"deadline\",\"action_type\":\"motion\",\"case_number\":\"CN-001\",\"urgency\":\"this_week\"}]"
	brief, actions := splitCascadeResponse(text)
	if brief != "Strategic brief text here." {
		t.Fatalf("unexpected brief: %q", brief)
	}
	if len(actions) != 1 || actions[0].Label != "File motion" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestSplitCascadeResponseFallsBackWhenNoActionsMarker(t *testing.T) {
	text := "Just a brief, no actions tail."
	brief, actions := splitCascadeResponse(text)
	if brief != text || actions != nil {
		t.Fatalf("expected full text as brief and nil actions, got %q %+v", brief, actions)
	}
}
