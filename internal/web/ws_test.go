package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haasonsaas/case-nexus/internal/contextbuilder"
	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/gate"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/toolloop"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/internal/workflow"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

type wsScriptedProvider struct{ text string }

func (p *wsScriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	ch := make(chan *llm.CompletionChunk, 2)
	ch <- &llm.CompletionChunk{Text: p.text}
	ch <- &llm.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}
func (p *wsScriptedProvider) Name() string        { return "scripted" }
func (p *wsScriptedProvider) Models() []llm.Model { return nil }
func (p *wsScriptedProvider) SupportsTools() bool { return false }

func newTestControlPlane(t *testing.T, responseText string) *httptest.Server {
	t.Helper()
	store := corpus.NewMemoryStore(
		[]models.Case{{CaseNumber: "CN-001", Defendant: "Alpha", Status: models.CaseStatusOpen}},
		nil, nil,
	)
	log := insights.NewMemoryLog()
	builder := contextbuilder.New(store, log)
	bus := eventbus.New()
	provider := &wsScriptedProvider{text: responseText}
	runner := streaming.New(provider, bus, nil)
	registry := tools.NewRegistry()
	loop := toolloop.New(runner, registry, bus)
	engine := workflow.New(store, store, builder, runner, loop, registry, log, bus, nil)
	g := gate.New()

	router := NewServer(engine, registry, store, log, g, bus, nil, nil)
	return httptest.NewServer(router)
}

func dialControlPlane(t *testing.T, srv *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?client_id=" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func TestRunHealthCheckCommandEmitsResultsEvent(t *testing.T) {
	srv := newTestControlPlane(t, `{"alerts":[],"connections":[],"priority_actions":[]}`)
	defer srv.Close()

	conn := dialControlPlane(t, srv, "client-1")
	defer conn.Close()

	if err := conn.WriteJSON(command{Command: "run_health_check"}); err != nil {
		t.Fatalf("write error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var evt models.StreamEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("expected health_check_results before timeout: %v", err)
		}
		if evt.Name == "health_check_results" {
			return
		}
	}
}

func TestUnknownCommandEmitsAnalysisError(t *testing.T) {
	srv := newTestControlPlane(t, "")
	defer srv.Close()

	conn := dialControlPlane(t, srv, "client-2")
	defer conn.Close()

	if err := conn.WriteJSON(command{Command: "not_a_real_command"}); err != nil {
		t.Fatalf("write error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err != nil {
		t.Fatalf("expected analysis_error before timeout: %v", err)
	}
	if !strings.Contains(string(raw), "unknown command") {
		t.Fatalf("expected unknown command error, got %s", raw)
	}
}

func TestSecondWorkflowWhileBusyIsRejected(t *testing.T) {
	srv := newTestControlPlane(t, `{"alerts":[],"connections":[],"priority_actions":[]}`)
	defer srv.Close()

	conn := dialControlPlane(t, srv, "client-3")
	defer conn.Close()

	_ = conn.WriteJSON(command{Command: "run_health_check"})
	_ = conn.WriteJSON(command{Command: "run_health_check"})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	sawBusy := false
	for i := 0; i < 5; i++ {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			break
		}
		if strings.Contains(string(raw), `"busy"`) {
			sawBusy = true
			break
		}
	}
	if !sawBusy {
		t.Fatalf("expected at least one busy analysis_error")
	}
}
