// Package llm defines the provider-agnostic interface the Streaming Runner
// and Tool Loop build on. Case Nexus ships one implementation
// (internal/llm/anthropic) but nothing above this package knows that.
package llm

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// Provider is an LLM backend capable of streaming completions with
// interleaved thinking and tool use.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
	Name() string
	Models() []Model
	SupportsTools() bool
}

// CompletionRequest is a single call to the provider.
type CompletionRequest struct {
	Model                string               `json:"model"`
	System               string               `json:"system,omitempty"`
	Messages             []CompletionMessage  `json:"messages"`
	Tools                []Tool               `json:"tools,omitempty"`
	MaxTokens            int                  `json:"max_tokens,omitempty"`
	EnableThinking       bool                 `json:"enable_thinking,omitempty"`
	ThinkingBudgetTokens int                  `json:"thinking_budget_tokens,omitempty"`
}

// CompletionMessage is one turn of the conversation. Role is one of "user",
// "assistant". Tool results travel as a user-role message per the provider's
// wire convention.
type CompletionMessage struct {
	Role        string               `json:"role"`
	Content     string               `json:"content,omitempty"`
	ToolCalls   []models.ToolCall    `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult  `json:"tool_results,omitempty"`
	Attachments []models.Attachment  `json:"attachments,omitempty"`
}

// CompletionChunk is one event in the streaming response. Exactly one of
// Text, Thinking, ToolCall, Done, or Error is meaningful per chunk.
type CompletionChunk struct {
	Text          string          `json:"text,omitempty"`
	Thinking      string          `json:"thinking,omitempty"`
	ThinkingStart bool            `json:"thinking_start,omitempty"`
	ThinkingEnd   bool            `json:"thinking_end,omitempty"`
	ToolCall      *models.ToolCall `json:"tool_call,omitempty"`
	Done          bool            `json:"done,omitempty"`
	Truncated     bool            `json:"truncated,omitempty"`
	InputTokens   int             `json:"input_tokens,omitempty"`
	OutputTokens  int             `json:"output_tokens,omitempty"`
	Error         error           `json:"-"`
}

// Model describes one available model and its capabilities.
type Model struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContextSize    int    `json:"context_size"`
	SupportsVision bool   `json:"supports_vision"`
}

// Tool is the provider-facing view of a Tool Registry entry: just enough
// to build the wire-format tool declaration. Dispatch lives in
// internal/tools, not here.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
}
