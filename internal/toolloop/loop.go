// Package toolloop implements the Tool Loop (C5): a multi-round agentic
// executor built on the Streaming Runner and Tool Registry. Grounded on the
// teacher's agentic iteration loop in internal/agent/runtime.go (the
// maxIters for-loop around a single provider.Complete call and its tool
// dispatch), narrowed to Case Nexus's simpler single-conversation round
// model with no branching or steering queue (spec §4.5).
package toolloop

import (
	"context"

	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// DefaultMaxRounds is the round bound spec §4.5/invariant 4 names.
const DefaultMaxRounds = 8

// Request is one Tool Loop invocation.
type Request struct {
	ClientID          string
	Analysis          models.AnalysisType
	SystemPrompt      string
	InitialUserPrompt string
	ToolSubset        []string
	MaxRounds         int
	ThinkingBudget    int
	MaxOutputTokens   int
}

// Result is the loop's terminal outcome.
type Result struct {
	Text      string
	Rounds    int
	Truncated bool
}

// Loop drives the Streaming Runner through successive rounds, dispatching
// any tool calls the model requests through the Tool Registry in between.
type Loop struct {
	runner   *streaming.Runner
	registry *tools.Registry
	bus      *eventbus.Bus
}

// New creates a Loop.
func New(runner *streaming.Runner, registry *tools.Registry, bus *eventbus.Bus) *Loop {
	return &Loop{runner: runner, registry: registry, bus: bus}
}

// Run executes req to completion: either the model stops requesting tools,
// or MaxRounds rounds have been spent, in which case a forced final
// no-tools continuation asks the model to summarize with what it has.
// Cancellation of ctx is checked before each round.
func (l *Loop) Run(ctx context.Context, req Request) (Result, error) {
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	toolList := l.toolsFor(req.ToolSubset)

	var messages []llm.CompletionMessage
	lastPrompt := req.InitialUserPrompt
	var lastResult streaming.Result

	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		forced := round == maxRounds-1
		runnerTools := toolList
		if forced {
			runnerTools = nil
			lastPrompt = lastPrompt + "\n\nSummarize your findings now, using only what you have already gathered. No further tool calls are available."
		}

		result, err := l.runner.Run(ctx, streaming.Request{
			ClientID:        req.ClientID,
			Analysis:        req.Analysis,
			SystemPrompt:    req.SystemPrompt,
			UserPrompt:      lastPrompt,
			ThinkingBudget:  req.ThinkingBudget,
			MaxOutputTokens: req.MaxOutputTokens,
			Tools:           runnerTools,
			PriorMessages:   messages,
		})
		if err != nil {
			return Result{}, err
		}
		lastResult = result

		messages = append(messages, llm.CompletionMessage{Role: "user", Content: lastPrompt})
		messages = append(messages, llm.CompletionMessage{
			Role:      "assistant",
			Content:   result.Text,
			ToolCalls: result.ToolCalls,
		})

		if len(result.ToolCalls) == 0 || forced {
			return Result{Text: result.Text, Rounds: round + 1, Truncated: result.Truncated}, nil
		}

		toolResults := l.dispatchSequentially(ctx, req.ClientID, req.Analysis, round, result.ToolCalls)
		messages = append(messages, llm.CompletionMessage{Role: "user", ToolResults: toolResults})
		lastPrompt = ""
	}

	return Result{Text: lastResult.Text, Rounds: maxRounds, Truncated: lastResult.Truncated}, nil
}

// dispatchSequentially executes each tool call in order, never starting the
// next dispatch until the previous tool_result has been emitted (spec §4.5
// ordering guarantee).
func (l *Loop) dispatchSequentially(ctx context.Context, clientID string, analysis models.AnalysisType, round int, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(calls))
	for _, call := range calls {
		l.emitTool(ctx, clientID, analysis, models.ToolInvocation{
			ToolID:    call.ID,
			ToolName:  call.Name,
			ToolInput: call.Input,
			Status:    models.ToolInvocationCalling,
			Round:     round,
		})
		l.emitTool(ctx, clientID, analysis, models.ToolInvocation{
			ToolID:    call.ID,
			ToolName:  call.Name,
			ToolInput: call.Input,
			Status:    models.ToolInvocationExecuting,
			Round:     round,
		})

		dispatchResult := l.registry.Dispatch(ctx, call.Name, call.Input)
		content, resultLen := toolResultContent(dispatchResult)

		status := models.ToolInvocationDone
		if dispatchResult.Error {
			status = models.ToolInvocationError
		}
		l.emitTool(ctx, clientID, analysis, models.ToolInvocation{
			ToolID:        call.ID,
			ToolName:      call.Name,
			Status:        status,
			ResultPreview: models.Preview(content),
			ResultLength:  resultLen,
			Round:         round,
		})

		results = append(results, models.ToolResult{
			ToolCallID: call.ID,
			Content:    content,
			IsError:    dispatchResult.Error,
		})
	}
	return results
}

func toolResultContent(r tools.Result) (string, int) {
	if r.Error {
		return r.Message, len(r.Message)
	}
	return string(r.Output), len(r.Output)
}

func (l *Loop) emitTool(ctx context.Context, clientID string, analysis models.AnalysisType, inv models.ToolInvocation) {
	if l.bus == nil {
		return
	}
	kind := models.EventToolCall
	if inv.Status == models.ToolInvocationDone || inv.Status == models.ToolInvocationError {
		kind = models.EventToolResult
	}
	l.bus.Publish(ctx, clientID, analysis, models.StreamEvent{Kind: kind, Tool: &inv})
}

func (l *Loop) toolsFor(subset []string) []llm.Tool {
	all := l.registry.AsLLMTools()
	if len(subset) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(subset))
	for _, name := range subset {
		wanted[name] = true
	}
	out := make([]llm.Tool, 0, len(subset))
	for _, t := range all {
		if wanted[t.Name()] {
			out = append(out, t)
		}
	}
	return out
}
