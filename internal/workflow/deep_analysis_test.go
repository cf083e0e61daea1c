package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func TestRunDeepCaseAnalysisParsesStructuredResult(t *testing.T) {
	response := `{"executive_summary":"Weak state case.","prosecution_strength_score":30,"key_facts":["Stop was pretextual"],"defense_strategies":["Suppress the stop"],"evidence_analysis":"Dashcam undermines the stated basis.","constitutional_issues":["Fourth Amendment"],"witness_analysis":"Officer testimony is inconsistent.","plea_recommendation":{"recommendation":"Reject","conviction_probability":0.2},"recommended_motions":["Motion to suppress"],"action_timeline":["File motion within 14 days"],"overall_assessment":"Favorable to the defense."}`
	engine, _, log := newTestEngine(t, response)

	result, err := engine.RunDeepCaseAnalysis(context.Background(), "client-1", "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExecutiveSummary != "Weak state case." {
		t.Fatalf("unexpected executive summary: %q", result.ExecutiveSummary)
	}
	if result.ProsecutionStrength != 30 {
		t.Fatalf("unexpected strength score: %d", result.ProsecutionStrength)
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisDeepAnalysis), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one deep_analysis insight scoped to CN-001, got %v err=%v", recent, err)
	}
}

func TestRunDeepCaseAnalysisSurfacesRawTextOnParseFailure(t *testing.T) {
	engine, _, log := newTestEngine(t, "not json")

	result, err := engine.RunDeepCaseAnalysis(context.Background(), "client-1", "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExecutiveSummary != "" {
		t.Fatalf("expected a zero-value result on parse failure, got %+v", result)
	}

	recent, err := log.List(context.Background(), "CN-001", string(models.AnalysisDeepAnalysis), 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected the raw-text fallback still logged as an insight, got %v err=%v", recent, err)
	}
}
