// Package streaming implements the Streaming Runner (C4): drives a single
// LLM call, forwarding thinking/response deltas onto the Event Bus and
// recording authoritative token usage on completion (spec §4.4). Grounded on
// the chunk-processing loop in the teacher's agent runtime, narrowed to one
// call with no session/branch/summarization machinery.
package streaming

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// Request is one Streaming Runner invocation.
type Request struct {
	ClientID        string
	Analysis        models.AnalysisType
	SystemPrompt    string
	UserPrompt      string
	ThinkingBudget  int
	MaxOutputTokens int
	Tools           []llm.Tool
	PriorMessages   []llm.CompletionMessage

	// OnResponseDelta, when set, is called with the cumulative response text
	// length after each response chunk. The Health Check workflow uses this
	// to derive its 5-phase progress milestones from the response length so
	// far rather than wiring a second observation channel (spec §4.6.1).
	OnResponseDelta func(totalLen int)
}

// Result is the accumulated, authoritative outcome of one call.
type Result struct {
	Text      string
	ToolCalls []models.ToolCall
	Truncated bool
	Usage     models.TokenDelta
}

// Runner drives one provider.Complete call over a Provider, publishing
// namespaced events and updating the Token Accountant.
type Runner struct {
	provider   llm.Provider
	bus        *eventbus.Bus
	accountant *tokens.Accountant
}

// New creates a Runner.
func New(provider llm.Provider, bus *eventbus.Bus, accountant *tokens.Accountant) *Runner {
	return &Runner{provider: provider, bus: bus, accountant: accountant}
}

// Run executes req to completion or failure. A transport failure (from
// Complete or from a chunk's Error) is published as an <ns>_error event per
// spec §4.4 and also returned as err. Cancellation of ctx stops the call and
// returns ctx.Err() without publishing further events. Truncation is not an
// error: it is reported through Result.Truncated and on response_complete.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	messages := append(append([]llm.CompletionMessage{}, req.PriorMessages...), llm.CompletionMessage{
		Role:    "user",
		Content: req.UserPrompt,
	})

	creq := &llm.CompletionRequest{
		System:               req.SystemPrompt,
		Messages:             messages,
		Tools:                req.Tools,
		MaxTokens:            req.MaxOutputTokens,
		EnableThinking:       req.ThinkingBudget > 0,
		ThinkingBudgetTokens: req.ThinkingBudget,
	}

	completion, err := r.provider.Complete(ctx, creq)
	if err != nil {
		r.emitError(ctx, req.ClientID, req.Analysis, err)
		return Result{}, err
	}

	var (
		thinkingBuilder strings.Builder
		textBuilder     strings.Builder
		toolCalls       []models.ToolCall
		thinkingOpen    bool
		responseOpen    bool
		truncated       bool
		usage           models.TokenDelta
	)

	for chunk := range completion {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			if thinkingOpen {
				r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingComplete, models.StreamEvent{})
			}
			r.emitError(ctx, req.ClientID, req.Analysis, chunk.Error)
			return Result{}, chunk.Error
		}

		if chunk.ThinkingStart && !thinkingOpen {
			thinkingOpen = true
			r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingStarted, models.StreamEvent{})
		}
		if chunk.Thinking != "" {
			if !thinkingOpen {
				thinkingOpen = true
				r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingStarted, models.StreamEvent{})
			}
			thinkingBuilder.WriteString(chunk.Thinking)
			r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingDelta, models.StreamEvent{Text: chunk.Thinking})
		}
		if chunk.ThinkingEnd && thinkingOpen {
			thinkingOpen = false
			r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingComplete, models.StreamEvent{FullText: thinkingBuilder.String()})
		}

		if chunk.Text != "" {
			if thinkingOpen {
				thinkingOpen = false
				r.publish(ctx, req.ClientID, req.Analysis, models.EventThinkingComplete, models.StreamEvent{FullText: thinkingBuilder.String()})
			}
			if !responseOpen {
				responseOpen = true
				r.publish(ctx, req.ClientID, req.Analysis, models.EventResponseStarted, models.StreamEvent{})
			}
			textBuilder.WriteString(chunk.Text)
			r.publish(ctx, req.ClientID, req.Analysis, models.EventResponseDelta, models.StreamEvent{Text: chunk.Text})
			if req.OnResponseDelta != nil {
				req.OnResponseDelta(textBuilder.Len())
			}
		}

		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}

		if chunk.Done {
			truncated = chunk.Truncated
			usage = models.TokenDelta{
				Input:  int64(chunk.InputTokens),
				Output: int64(chunk.OutputTokens),
			}
			break
		}

		if ctx.Err() != nil {
			// Cancellation: stop observing further chunks, emit nothing more,
			// discard partial thinking.
			return Result{}, ctx.Err()
		}
	}

	if responseOpen {
		r.publish(ctx, req.ClientID, req.Analysis, models.EventResponseComplete, models.StreamEvent{
			FullText:  textBuilder.String(),
			Truncated: truncated,
		})
	}

	if r.accountant != nil {
		r.accountant.Add(ctx, usage)
	}

	return Result{
		Text:      textBuilder.String(),
		ToolCalls: toolCalls,
		Truncated: truncated,
		Usage:     usage,
	}, nil
}

func (r *Runner) emitError(ctx context.Context, clientID string, analysis models.AnalysisType, err error) {
	r.publish(ctx, clientID, analysis, models.EventError, models.StreamEvent{Message: fmt.Sprintf("%s", err)})
}

func (r *Runner) publish(ctx context.Context, clientID string, analysis models.AnalysisType, kind models.StreamEventKind, e models.StreamEvent) {
	if r.bus == nil {
		return
	}
	e.Kind = kind
	r.bus.Publish(ctx, clientID, analysis, e)
}
