package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestRunHearingPrepBriefPersistsAsInsight(t *testing.T) {
	engine, _, log := newTestEngine(t, "Expect a pretrial conference. Have the discovery log ready.")

	text, err := engine.RunHearingPrepBrief(context.Background(), "client-1", "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Fatalf("expected non-empty brief text")
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisHearingPrep), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one hearing_prep insight scoped to CN-001, got %v err=%v", recent, err)
	}
}
