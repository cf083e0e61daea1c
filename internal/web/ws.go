// Package web implements the client <-> server control channel (spec §6):
// a bidirectional, push-capable websocket carrying one inbound command per
// frame plus the namespaced Event Bus stream outbound, and the read-only
// HTTP surface documented "for completeness" alongside it. Grounded on the
// teacher's gateway websocket control plane, narrowed to one command set
// and without the gRPC bridge it layers over.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haasonsaas/case-nexus/internal/cron"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/gate"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/internal/workflow"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const (
	wsMaxPayloadBytes = 1 << 20
	wsPongWait        = 45 * time.Second
	wsWriteWait       = 10 * time.Second
	wsPingInterval    = 20 * time.Second
)

// ControlPlane upgrades a connection to a websocket and drives one client's
// command stream against the Workflow Engine, Tool Registry, Request Gate,
// and Token Accountant.
type ControlPlane struct {
	engine     *workflow.Engine
	registry   *tools.Registry
	gate       *gate.Gate
	bus        *eventbus.Bus
	accountant *tokens.Accountant
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewControlPlane creates a ControlPlane. logger may be nil, in which case
// slog.Default() is used.
func NewControlPlane(engine *workflow.Engine, registry *tools.Registry, g *gate.Gate, bus *eventbus.Bus, accountant *tokens.Accountant, logger *slog.Logger) *ControlPlane {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlPlane{
		engine:     engine,
		registry:   registry,
		gate:       g,
		bus:        bus,
		accountant: accountant,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// command is one inbound frame (spec §6 inbound commands table).
type command struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type loadDemoPayload struct{}

type caseNumberPayload struct {
	CaseNumber string `json:"case_number"`
}

type motionPayload struct {
	CaseNumber string `json:"case_number"`
	MotionType string `json:"motion_type"`
}

type evidencePayload struct {
	CaseNumber string `json:"case_number"`
	EvidenceID string `json:"evidence_id"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type searchCaseLawPayload struct {
	Query string `json:"query"`
	Court string `json:"court,omitempty"`
}

type widgetPayload struct {
	Request string `json:"request"`
}

// clientSession is one connected websocket client, also the Event Bus
// Sink registered for its client ID.
type clientSession struct {
	plane    *ControlPlane
	conn     *websocket.Conn
	clientID string
	send     chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

var _ eventbus.Sink = (*clientSession)(nil)

// ServeHTTP upgrades r into a websocket and runs the client's session to
// completion. The clientID is taken from the "client_id" query parameter;
// a missing one is assigned a placeholder so the connection still works
// for quick manual testing.
func (p *ControlPlane) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		clientID = fmt.Sprintf("anon-%d", time.Now().UnixNano())
	}

	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	session := &clientSession{
		plane:    p,
		conn:     conn,
		clientID: clientID,
		send:     make(chan []byte, 64),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.bus.Register(clientID, session)
	p.logger.Info("control channel connected", "client_id", clientID)

	defer func() {
		p.bus.Unregister(clientID)
		session.cancel()
		close(session.send)
		_ = conn.Close()
		p.logger.Info("control channel disconnected", "client_id", clientID)
	}()

	go session.writeLoop()
	session.readLoop()
}

// Emit implements eventbus.Sink by queueing the event for the write loop.
// Droppable frames (thinking/response deltas) are dropped rather than
// blocking when the send buffer is full, so a slow client cannot stall the
// workflow producing them (spec §5 "cooperative yielding").
func (s *clientSession) Emit(_ context.Context, e models.StreamEvent) {
	e.Time = time.Now()
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
		if !e.Droppable {
			select {
			case s.send <- data:
			case <-time.After(wsWriteWait):
			}
		}
	}
}

func (s *clientSession) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *clientSession) readLoop() {
	s.conn.SetReadLimit(wsMaxPayloadBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.cancel()
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.emitAnalysisError("invalid command frame: " + err.Error())
			continue
		}
		s.dispatch(cmd)
	}
}

// dispatch runs one command. Every long-running workflow is spawned on its
// own goroutine so the read loop keeps accepting frames (e.g. a later
// clear_chat or a second client's independent commands) while it streams
// (spec §5 "predominantly I/O-bound").
func (s *clientSession) dispatch(cmd command) {
	switch cmd.Command {
	case "load_demo_caseload":
		s.plane.bus.PublishGlobal(s.ctx, s.clientID, models.EventCaseloadLoaded, models.StreamEvent{Message: "demo caseload is populated externally"})

	case "run_health_check":
		s.runGated("health_check", func(ctx context.Context) error {
			_, err := s.plane.engine.RunHealthCheck(ctx, s.clientID)
			return err
		})

	case "run_deep_analysis":
		var p caseNumberPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("deep_analysis", func(ctx context.Context) error {
			_, err := s.plane.engine.RunDeepCaseAnalysis(ctx, s.clientID, p.CaseNumber)
			return err
		})

	case "run_adversarial":
		var p caseNumberPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("adversarial", func(ctx context.Context) error {
			_, err := s.plane.engine.RunAdversarialSimulation(ctx, s.clientID, p.CaseNumber)
			return err
		})

	case "generate_motion":
		var p motionPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("motion", func(ctx context.Context) error {
			_, err := s.plane.engine.RunMotionGeneration(ctx, s.clientID, p.CaseNumber, p.MotionType, nil)
			return err
		})

	case "analyze_evidence":
		var p evidencePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("evidence", func(ctx context.Context) error {
			_, err := s.plane.engine.RunEvidenceAnalysis(ctx, s.clientID, p.CaseNumber, p.EvidenceID)
			return err
		})

	case "chat_message":
		var p chatPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("chat", func(ctx context.Context) error {
			_, err := s.plane.engine.RunCaseloadChat(ctx, s.clientID, p.Message)
			return err
		})

	case "clear_chat":
		s.plane.engine.ClearChat(s.clientID)

	case "run_hearing_prep":
		var p caseNumberPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("hearing_prep", func(ctx context.Context) error {
			_, err := s.plane.engine.RunHearingPrepBrief(ctx, s.clientID, p.CaseNumber)
			return err
		})

	case "run_client_letter":
		var p caseNumberPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("client_letter", func(ctx context.Context) error {
			_, err := s.plane.engine.RunClientLetter(ctx, s.clientID, p.CaseNumber)
			return err
		})

	case "run_cascade":
		s.runGated("cascade", func(ctx context.Context) error {
			_, err := s.plane.engine.RunCascadeIntelligence(ctx, s.clientID)
			return err
		})

	case "search_case_law":
		var p searchCaseLawPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		go s.runToolDirect("search_case_law", p)

	case "create_widget":
		var p widgetPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.emitAnalysisError(err.Error())
			return
		}
		s.runGated("widget", func(ctx context.Context) error {
			_, err := s.plane.engine.RunWidget(ctx, s.clientID, p.Request)
			return err
		})

	default:
		s.emitAnalysisError(fmt.Sprintf("unknown command %q", cmd.Command))
	}
}

// runGated enforces the Request Gate (spec §4.11): a second workflow for a
// client already mid-analysis is rejected with analysis_error{busy} rather
// than interleaved.
func (s *clientSession) runGated(label string, fn func(ctx context.Context) error) {
	release, ok := s.plane.gate.TryAcquire(s.clientID)
	if !ok {
		s.emitAnalysisError("busy")
		return
	}
	go func() {
		defer release()
		if err := fn(s.ctx); err != nil {
			s.plane.logger.Warn("workflow failed", "client_id", s.clientID, "workflow", label, "error", err)
		}
	}()
}

// runToolDirect dispatches a single tool call outside the Tool Loop, for
// commands that are direct Tool Registry invocations rather than full
// workflows (spec §6: search_case_law). create_widget is not one of them:
// it runs as a workflow through runGated.
func (s *clientSession) runToolDirect(name string, payload any) {
	input, err := json.Marshal(payload)
	if err != nil {
		s.emitAnalysisError(err.Error())
		return
	}
	result := s.plane.registry.Dispatch(s.ctx, name, input)
	if result.Error {
		s.emitAnalysisError(result.Message)
		return
	}
	s.plane.bus.PublishGlobal(s.ctx, s.clientID, models.EventStatus, models.StreamEvent{Results: json.RawMessage(result.Output)})
}

func (s *clientSession) emitAnalysisError(message string) {
	s.plane.bus.PublishGlobal(s.ctx, s.clientID, models.EventAnalysisError, models.StreamEvent{Message: message})
}

// NewHealthCheckTrigger returns a cron.HealthCheckFunc that runs the health
// check workflow through the Request Gate exactly like a client-issued
// run_health_check command would.
func NewHealthCheckTrigger(engine *workflow.Engine, g *gate.Gate, logger *slog.Logger) cron.HealthCheckFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, clientID string) {
		release, ok := g.TryAcquire(clientID)
		if !ok {
			return
		}
		defer release()
		if _, err := engine.RunHealthCheck(ctx, clientID); err != nil {
			logger.Warn("scheduled health check failed", "client_id", clientID, "error", err)
		}
	}
}
