package streaming

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

type fakeProvider struct {
	chunks []*llm.CompletionChunk
	err    error
}

func (f *fakeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan *llm.CompletionChunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Name() string           { return "fake" }
func (f *fakeProvider) Models() []llm.Model    { return nil }
func (f *fakeProvider) SupportsTools() bool    { return true }

type recordingSink struct {
	events []models.StreamEvent
}

func (s *recordingSink) Emit(ctx context.Context, e models.StreamEvent) {
	s.events = append(s.events, e)
}

func (s *recordingSink) names() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name
	}
	return out
}

func TestRunEmitsThinkingAndResponseLifecycleInOrder(t *testing.T) {
	provider := &fakeProvider{chunks: []*llm.CompletionChunk{
		{ThinkingStart: true},
		{Thinking: "considering the charges"},
		{ThinkingEnd: true},
		{Text: "the defendant"},
		{Text: " should move to suppress"},
		{Done: true, InputTokens: 100, OutputTokens: 40},
	}}

	bus := eventbus.New()
	sink := &recordingSink{}
	bus.Register("client-1", sink)
	accountant := tokens.New(nil)

	r := New(provider, bus, accountant)
	result, err := r.Run(context.Background(), Request{
		ClientID: "client-1",
		Analysis: models.AnalysisDeepAnalysis,
		UserPrompt: "analyze case CN-001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "the defendant should move to suppress" {
		t.Fatalf("unexpected accumulated text: %q", result.Text)
	}

	got := sink.names()
	want := []string{
		"deep_analysis_thinking_started",
		"deep_analysis_thinking_delta",
		"deep_analysis_thinking_complete",
		"deep_analysis_response_started",
		"deep_analysis_response_delta",
		"deep_analysis_response_delta",
		"deep_analysis_response_complete",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q (full: %v)", i, want[i], got[i], got)
		}
	}

	if accountant.Snapshot().TotalInput != 100 || accountant.Snapshot().TotalOutput != 40 {
		t.Fatalf("expected accountant to record authoritative usage, got %+v", accountant.Snapshot())
	}
}

func TestRunEmitsNamespacedErrorOnTransportFailureAndSkipsAccountant(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream unavailable")}
	bus := eventbus.New()
	sink := &recordingSink{}
	bus.Register("client-1", sink)
	accountant := tokens.New(nil)

	r := New(provider, bus, accountant)
	_, err := r.Run(context.Background(), Request{
		ClientID:   "client-1",
		Analysis:   models.AnalysisHealthCheck,
		UserPrompt: "run health check",
	})
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if len(sink.events) != 1 || sink.events[0].Name != "health_check_error" {
		t.Fatalf("expected a single namespaced error event, got %v", sink.names())
	}
	if accountant.Snapshot().CallCount != 0 {
		t.Fatalf("expected accountant untouched on transport error, got %+v", accountant.Snapshot())
	}
}

func TestRunSurfacesTruncationOnCompletionEvent(t *testing.T) {
	provider := &fakeProvider{chunks: []*llm.CompletionChunk{
		{Text: "partial output"},
		{Done: true, Truncated: true, InputTokens: 10, OutputTokens: 500},
	}}
	bus := eventbus.New()
	sink := &recordingSink{}
	bus.Register("client-1", sink)

	r := New(provider, bus, tokens.New(nil))
	result, err := r.Run(context.Background(), Request{
		ClientID:   "client-1",
		Analysis:   models.AnalysisMotion,
		UserPrompt: "draft motion",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Truncated {
		t.Fatal("expected result to report truncation")
	}

	var completeEvent *models.StreamEvent
	for i := range sink.events {
		if sink.events[i].Name == "motion_response_complete" {
			completeEvent = &sink.events[i]
		}
	}
	if completeEvent == nil || !completeEvent.Truncated {
		t.Fatal("expected motion_response_complete event to carry truncated: true")
	}
}
