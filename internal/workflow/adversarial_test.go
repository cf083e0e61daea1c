package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestRunAdversarialSimulationChainsAllThreePhases(t *testing.T) {
	engine, _, log := newTestEngine(t, "argument text")

	result, err := engine.RunAdversarialSimulation(context.Background(), "client-1", "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FailedPhase != "" {
		t.Fatalf("expected no failed phase, got %q", result.FailedPhase)
	}
	if result.Prosecution == "" || result.Defense == "" || result.Judge == "" {
		t.Fatalf("expected all three phases populated, got %+v", result)
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisAdversarial), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one adversarial insight, got %v err=%v", recent, err)
	}

	for _, analysisType := range []models.AnalysisType{models.AnalysisProsecution, models.AnalysisDefense, models.AnalysisJudge} {
		stray, err := log.List(context.Background(), "CN-001", string(analysisType), 0)
		if err != nil || len(stray) != 0 {
			t.Fatalf("expected no separate %s insight, got %v err=%v", analysisType, stray, err)
		}
	}
}
