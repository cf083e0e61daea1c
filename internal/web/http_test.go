package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/internal/workflow"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha", Status: models.CaseStatusOpen}},
		nil, nil,
	)
	log := insights.NewMemoryLog()
	accountant := tokens.New(nil)

	router := NewServer(&workflow.Engine{}, nil, store, log, nil, nil, accountant, nil)
	return httptest.NewServer(router)
}

func TestHandleCasesListsAllCases(t *testing.T) {
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha", Status: models.CaseStatusOpen}},
		nil, nil,
	)
	log := insights.NewMemoryLog()
	router := NewServer(&workflow.Engine{}, nil, store, log, nil, nil, tokens.New(nil), nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/cases")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleCaseNotFoundReturns404(t *testing.T) {
	store := corpus.NewMemoryStore(nil, nil, nil)
	log := insights.NewMemoryLog()
	router := NewServer(&workflow.Engine{}, nil, store, log, nil, nil, tokens.New(nil), nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/case/CN-999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleHealthzReportsOK(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
