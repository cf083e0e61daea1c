package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestRunClientLetterPersistsAsInsight(t *testing.T) {
	engine, _, log := newTestEngine(t, "Your case is progressing. Here is what to expect next.")

	text, err := engine.RunClientLetter(context.Background(), "client-1", "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Fatalf("expected non-empty letter text")
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisClientLetter), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one client_letter insight scoped to CN-001, got %v err=%v", recent, err)
	}
}
