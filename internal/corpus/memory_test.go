package corpus

import (
	"context"
	"testing"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

func newTestStore() *MemoryStore {
	cases := []models.Case{
		{CaseNumber: "CN-002", Defendant: "Bravo", Officer: "Lopez", Status: models.CaseStatusOpen, Charges: []string{"Burglary"}},
		{CaseNumber: "CN-001", Defendant: "Alpha", Officer: "Lopez", Status: models.CaseStatusOpen, Charges: []string{"Assault"}},
	}
	evidence := []models.EvidenceItem{
		{ID: "e1", CaseNumber: "CN-001", Type: models.EvidenceDashcam, Title: "Dashcam clip"},
		{ID: "e2", CaseNumber: "CN-999", Type: models.EvidenceDocument, Title: "Orphaned"},
	}
	legal := []models.LegalFact{
		{CitationToken: "PC-211", Title: "Robbery", Summary: "Defines robbery."},
	}
	return NewMemoryStore(cases, evidence, legal)
}

func TestSearchCasesDeterministicAscendingOrder(t *testing.T) {
	s := newTestStore()
	got, err := s.SearchCases(context.Background(), CaseFilter{Officer: "Lopez"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"CN-001", "CN-002"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEvidenceForUnknownCaseIsDropped(t *testing.T) {
	s := newTestStore()
	if _, err := s.GetCase(context.Background(), "CN-999"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for CN-999, got %v", err)
	}
	ev, err := s.GetEvidence(context.Background(), "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ev) != 1 || ev[0].ID != "e1" {
		t.Fatalf("expected only e1 bound to CN-001, got %v", ev)
	}
}

func TestDanglingAlertsAndConnectionsAreDroppedAtReadTime(t *testing.T) {
	s := newTestStore()
	err := s.ReplaceHealthCheckResults(context.Background(),
		[]models.Alert{
			{ID: "a1", CaseNumber: "CN-001", Severity: models.AlertWarning, Title: "ok"},
			{ID: "a2", CaseNumber: "CN-999", Severity: models.AlertCritical, Title: "dangling"},
		},
		[]models.Connection{
			{ID: "c1", CaseNumbers: []string{"CN-001", "CN-002"}, Title: "shared officer"},
			{ID: "c2", CaseNumbers: []string{"CN-999"}, Title: "dangling"},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alerts, err := s.ListAlerts(context.Background(), AlertFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != "a1" {
		t.Fatalf("expected only a1 to survive, got %v", alerts)
	}

	conns, err := s.ListConnections(context.Background(), ConnectionFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conns) != 1 || conns[0].ID != "c1" {
		t.Fatalf("expected only c1 to survive, got %v", conns)
	}
}

func TestGetCaseMarkdownIncludesEvidence(t *testing.T) {
	s := newTestStore()
	md, err := s.GetCaseMarkdown(context.Background(), "CN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(md, "Dashcam clip") {
		t.Fatalf("expected markdown to mention evidence title, got: %s", md)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
