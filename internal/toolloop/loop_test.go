package toolloop

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// scriptedProvider returns one canned response per call, advancing through
// responses regardless of the request content.
type scriptedProvider struct {
	responses [][]*llm.CompletionChunk
	calls     int
}

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	chunks := p.responses[idx]
	ch := make(chan *llm.CompletionChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Name() string        { return "scripted" }
func (p *scriptedProvider) Models() []llm.Model { return nil }
func (p *scriptedProvider) SupportsTools() bool { return true }

type echoTool struct{}

func (echoTool) Name() string                 { return "echo" }
func (echoTool) Description() string          { return "echoes input" }
func (echoTool) Schema() json.RawMessage      { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, input json.RawMessage) tools.Result {
	return tools.OK(map[string]string{"echoed": string(input)})
}

func TestRunTerminatesWhenModelStopsRequestingTools(t *testing.T) {
	provider := &scriptedProvider{responses: [][]*llm.CompletionChunk{
		{{Text: "final answer, no tools needed"}, {Done: true}},
	}}
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	bus := eventbus.New()
	runner := streaming.New(provider, bus, tokens.New(nil))

	l := New(runner, registry, bus)
	result, err := l.Run(context.Background(), Request{
		Analysis:          models.AnalysisCascade,
		InitialUserPrompt: "investigate the caseload",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rounds != 1 {
		t.Fatalf("expected 1 round, got %d", result.Rounds)
	}
	if result.Text != "final answer, no tools needed" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestRunDispatchesToolCallsSequentiallyAcrossRounds(t *testing.T) {
	provider := &scriptedProvider{responses: [][]*llm.CompletionChunk{
		{{ToolCall: &models.ToolCall{ID: "tc-1", Name: "echo", Input: json.RawMessage(`{"x":1}`)}}, {Done: true}},
		{{Text: "done after using the tool"}, {Done: true}},
	}}
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	bus := eventbus.New()
	runner := streaming.New(provider, bus, tokens.New(nil))

	l := New(runner, registry, bus)
	result, err := l.Run(context.Background(), Request{
		Analysis:          models.AnalysisCascade,
		InitialUserPrompt: "investigate",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", result.Rounds)
	}
	if result.Text != "done after using the tool" {
		t.Fatalf("unexpected final text: %q", result.Text)
	}
}

func TestRunForcesSummaryAtMaxRoundsWhenModelKeepsRequestingTools(t *testing.T) {
	toolCallChunks := []*llm.CompletionChunk{
		{ToolCall: &models.ToolCall{ID: "tc-x", Name: "echo", Input: json.RawMessage(`{}`)}}, {Done: true},
	}
	responses := make([][]*llm.CompletionChunk, 0, 3)
	for i := 0; i < 2; i++ {
		responses = append(responses, toolCallChunks)
	}
	responses = append(responses, []*llm.CompletionChunk{{Text: "forced summary"}, {Done: true}})

	provider := &scriptedProvider{responses: responses}
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	bus := eventbus.New()
	runner := streaming.New(provider, bus, tokens.New(nil))

	l := New(runner, registry, bus)
	result, err := l.Run(context.Background(), Request{
		Analysis:          models.AnalysisCascade,
		InitialUserPrompt: "investigate",
		MaxRounds:         3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rounds != 3 {
		t.Fatalf("expected forced termination at 3 rounds, got %d", result.Rounds)
	}
	if result.Text != "forced summary" {
		t.Fatalf("expected the forced no-tools continuation's text, got %q", result.Text)
	}
}

func TestRunSurfacesUnknownToolAsStructuredResultNotGoError(t *testing.T) {
	provider := &scriptedProvider{responses: [][]*llm.CompletionChunk{
		{{ToolCall: &models.ToolCall{ID: "tc-1", Name: "does_not_exist", Input: json.RawMessage(`{}`)}}, {Done: true}},
		{{Text: "recovered"}, {Done: true}},
	}}
	registry := tools.NewRegistry()
	bus := eventbus.New()
	runner := streaming.New(provider, bus, tokens.New(nil))

	l := New(runner, registry, bus)
	result, err := l.Run(context.Background(), Request{
		Analysis:          models.AnalysisCascade,
		InitialUserPrompt: "investigate",
	})
	if err != nil {
		t.Fatalf("unexpected Go error for an unknown tool call: %v", err)
	}
	if result.Text != "recovered" {
		t.Fatalf("expected the loop to continue past the unknown tool, got %q", result.Text)
	}
}
