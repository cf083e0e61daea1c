package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestDispatchRejectsUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), "nonexistent", json.RawMessage(`{}`))
	if !result.Error {
		t.Fatal("expected a structured error result for an unknown tool")
	}
}

func TestDispatchRejectsSchemaInvalidInput(t *testing.T) {
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha"}},
		nil, nil,
	)
	r := NewRegistry()
	r.Register(NewGetCaseTool(store))

	result := r.Dispatch(context.Background(), "get_case", json.RawMessage(`{"case_number": 123}`))
	if !result.Error {
		t.Fatal("expected a schema validation error for a non-string case_number")
	}
}

func TestDispatchExecutesValidInput(t *testing.T) {
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha"}},
		nil, nil,
	)
	r := NewRegistry()
	r.Register(NewGetCaseTool(store))

	result := r.Dispatch(context.Background(), "get_case", json.RawMessage(`{"case_number": "CN-001"}`))
	if result.Error {
		t.Fatalf("unexpected error: %s", result.Message)
	}
	var c models.Case
	if err := json.Unmarshal(result.Output, &c); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if c.Defendant != "Alpha" {
		t.Fatalf("expected defendant Alpha, got %q", c.Defendant)
	}
}
