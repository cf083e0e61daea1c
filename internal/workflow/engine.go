// Package workflow implements the Workflow Engine (C6): the nine named
// analyses composed from the Context Builder, Streaming Runner, Tool Loop,
// and Insight Log (spec §4.6). Each workflow is a thin, specific
// composition; the shared plumbing (insight persistence, JSON-with-fallback
// parsing) lives here.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

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

// ThinkingBudgets resolves the per-workflow thinking budget overrides and
// the MAX_ROUNDS/MEMORY_LIMIT caps spec §6 names as operator-tunable
// environment knobs. *config.Config implements this; kept as a narrow
// interface here so workflow does not import config.
type ThinkingBudgets interface {
	ThinkingBudgetFor(name string, fallback int) int
	MaxRounds() int
	MemoryLimit() int
}

// Engine owns every piece a workflow composes over.
type Engine struct {
	store      corpus.Store
	writer     corpus.HealthCheckWriter
	builder    *contextbuilder.Builder
	runner     *streaming.Runner
	loop       *toolloop.Loop
	registry   *tools.Registry
	log        insights.Log
	bus        *eventbus.Bus
	citations  *citations.Verifier
	budgets    ThinkingBudgets

	chatMu      sync.Mutex
	chatHistory map[string][]llm.CompletionMessage
}

// SetBudgets installs an operator-configurable thinking budget source. Left
// unset, every workflow uses its own hardcoded default.
func (e *Engine) SetBudgets(b ThinkingBudgets) {
	e.budgets = b
}

// thinkingBudget resolves name through the configured ThinkingBudgets,
// falling back to fallback when none is installed.
func (e *Engine) thinkingBudget(name string, fallback int) int {
	if e.budgets == nil {
		return fallback
	}
	return e.budgets.ThinkingBudgetFor(name, fallback)
}

// maxRounds resolves the Tool Loop's round bound, falling back to
// toolloop.DefaultMaxRounds when no ThinkingBudgets source is installed or
// it reports zero.
func (e *Engine) maxRounds() int {
	if e.budgets == nil {
		return 0
	}
	return e.budgets.MaxRounds()
}

// memoryLimit resolves MEMORY_LIMIT, falling back to
// contextbuilder.DefaultMemoryLimit when no ThinkingBudgets source is
// installed or it reports zero.
func (e *Engine) memoryLimit() int {
	if e.budgets == nil {
		return 0
	}
	return e.budgets.MemoryLimit()
}

// New creates an Engine. citationsVerifier may be nil if Motion Generation's
// automatic verification step should be skipped (e.g. in tests).
func New(
	store corpus.Store,
	writer corpus.HealthCheckWriter,
	builder *contextbuilder.Builder,
	runner *streaming.Runner,
	loop *toolloop.Loop,
	registry *tools.Registry,
	log insights.Log,
	bus *eventbus.Bus,
	citationsVerifier *citations.Verifier,
) *Engine {
	return &Engine{
		store:       store,
		writer:      writer,
		builder:     builder,
		runner:      runner,
		loop:        loop,
		registry:    registry,
		log:         log,
		bus:         bus,
		citations:   citationsVerifier,
		chatHistory: make(map[string][]llm.CompletionMessage),
	}
}

// emitResults publishes the terminal <workflow>_results event carrying the
// authoritative full output (spec §4.6: "each workflow emits
// <workflow>_results at termination"). A nil bus is a no-op, matching every
// other Publish call site in this package.
func (e *Engine) emitResults(ctx context.Context, clientID string, analysisType models.AnalysisType, results any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, clientID, analysisType, models.StreamEvent{
		Kind:    models.EventResults,
		Results: results,
	})
}

// publishGlobal publishes a bus-wide (non-namespaced) event, e.g. the
// citation-verification lifecycle events (spec §4.7 step 4). A nil bus is
// a no-op, matching emitResults and emitPhase.
func (e *Engine) publishGlobal(ctx context.Context, clientID string, kind models.StreamEventKind, evt models.StreamEvent) {
	if e.bus == nil {
		return
	}
	e.bus.PublishGlobal(ctx, clientID, kind, evt)
}

// appendInsight persists a completed analysis, assigning an ID and
// timestamp if absent.
func (e *Engine) appendInsight(ctx context.Context, analysisType models.AnalysisType, scope string, payload any) (models.Insight, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Insight{}, fmt.Errorf("marshal insight payload: %w", err)
	}
	ins := models.Insight{
		ID:           uuid.New().String(),
		AnalysisType: analysisType,
		Scope:        scope,
		Payload:      raw,
		Timestamp:    time.Now(),
	}
	return e.log.Append(ctx, ins)
}

// parseStructured unmarshals text into a T; on failure it returns a
// RawTextResult instead of an error so the raw text is always surfaced
// (spec §4.6 workflow 2: "if parsing fails, the raw text is still
// surfaced").
func parseStructured[T any](text string) (T, *models.RawTextResult) {
	var out T
	if err := json.Unmarshal(extractJSONObject(text), &out); err != nil {
		return out, &models.RawTextResult{RawText: text, Error: err.Error()}
	}
	return out, nil
}

// extractJSONObject trims any prose surrounding the first top-level JSON
// object in text, since models asked for "structured JSON" commonly wrap it
// in a sentence or a fenced code block.
func extractJSONObject(text string) []byte {
	start := -1
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				return []byte(text[start : i+1])
			}
		}
	}
	return []byte(text)
}
