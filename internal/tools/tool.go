// Package tools implements the Tool Registry (C3): nine capabilities
// exposed to the agent, each with a strict input schema generated from its
// Go input type and validated before dispatch (spec §4.3).
package tools

import (
	"context"
	"encoding/json"
)

// Result is the structured {error, message} value every tool returns on
// failure instead of failing the Tool Loop (spec §4.3 "Semantics").
type Result struct {
	Output  json.RawMessage `json:"output,omitempty"`
	Error   bool            `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// OK wraps a successful payload.
func OK(v any) Result {
	b, err := json.Marshal(v)
	if err != nil {
		return Fail("marshal tool output: " + err.Error())
	}
	return Result{Output: b}
}

// Fail wraps a tool-level failure. It is never propagated as a Go error to
// the Tool Loop; the model sees it as a normal tool result.
func Fail(message string) Result {
	return Result{Error: true, Message: message}
}

// Tool is one Tool Registry entry. Input is a Go struct with json tags;
// Schema() is derived from it once at registration time.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, input json.RawMessage) Result
}
