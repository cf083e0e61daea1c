package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/case-nexus/internal/contextbuilder"
	"github.com/haasonsaas/case-nexus/internal/corpus"
)

// GetCaseInput is get_case's input type.
type GetCaseInput struct {
	CaseNumber string `json:"case_number" jsonschema:"required,description=The case number to look up"`
}

// GetCaseTool looks up one case's structured record.
type GetCaseTool struct {
	store corpus.Store
}

// NewGetCaseTool creates the get_case tool.
func NewGetCaseTool(store corpus.Store) *GetCaseTool {
	return &GetCaseTool{store: store}
}

func (t *GetCaseTool) Name() string        { return "get_case" }
func (t *GetCaseTool) Description() string { return "Look up one case's structured record by case number." }
func (t *GetCaseTool) Schema() json.RawMessage {
	return GenerateSchema("get_case", GetCaseInput{})
}

func (t *GetCaseTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetCaseInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	c, err := t.store.GetCase(ctx, in.CaseNumber)
	if err != nil {
		return Fail("case not found: " + in.CaseNumber)
	}
	return OK(c)
}

// GetCaseContextInput is get_case_context's input type.
type GetCaseContextInput struct {
	CaseNumber string `json:"case_number" jsonschema:"required,description=The case number to build context for"`
}

// GetCaseContextTool returns the Context Builder's markdown blob for a case.
type GetCaseContextTool struct {
	builder *contextbuilder.Builder
}

// NewGetCaseContextTool creates the get_case_context tool.
func NewGetCaseContextTool(builder *contextbuilder.Builder) *GetCaseContextTool {
	return &GetCaseContextTool{builder: builder}
}

func (t *GetCaseContextTool) Name() string { return "get_case_context" }
func (t *GetCaseContextTool) Description() string {
	return "Return the markdown case context (case record, prior insights, alerts, connections) for one case."
}
func (t *GetCaseContextTool) Schema() json.RawMessage {
	return GenerateSchema("get_case_context", GetCaseContextInput{})
}

func (t *GetCaseContextTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetCaseContextInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	md, err := t.builder.BuildCaseContext(ctx, in.CaseNumber)
	if err != nil {
		return Fail("build case context: " + err.Error())
	}
	return OK(md)
}

// GetLegalContextInput is get_legal_context's input type.
type GetLegalContextInput struct {
	Topics []string `json:"topics" jsonschema:"required,description=Legal topic strings to search for"`
}

// GetLegalContextTool returns a legal digest for a set of topics.
type GetLegalContextTool struct {
	builder *contextbuilder.Builder
}

// NewGetLegalContextTool creates the get_legal_context tool.
func NewGetLegalContextTool(builder *contextbuilder.Builder) *GetLegalContextTool {
	return &GetLegalContextTool{builder: builder}
}

func (t *GetLegalContextTool) Name() string { return "get_legal_context" }
func (t *GetLegalContextTool) Description() string {
	return "Return a compact digest of statutes, amendments, and landmark cases relevant to the given topics."
}
func (t *GetLegalContextTool) Schema() json.RawMessage {
	return GenerateSchema("get_legal_context", GetLegalContextInput{})
}

func (t *GetLegalContextTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetLegalContextInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	digest, err := t.builder.BuildLegalContext(ctx, in.Topics)
	if err != nil {
		return Fail("build legal context: " + err.Error())
	}
	return OK(digest)
}

// GetAlertsInput is get_alerts's input type.
type GetAlertsInput struct {
	CaseNumber string `json:"case_number,omitempty" jsonschema:"description=Restrict to alerts targeting this case"`
	Severity   string `json:"severity,omitempty" jsonschema:"enum=critical,enum=warning,enum=info"`
}

// GetAlertsTool returns filtered health-check alerts.
type GetAlertsTool struct {
	store corpus.Store
}

// NewGetAlertsTool creates the get_alerts tool.
func NewGetAlertsTool(store corpus.Store) *GetAlertsTool {
	return &GetAlertsTool{store: store}
}

func (t *GetAlertsTool) Name() string        { return "get_alerts" }
func (t *GetAlertsTool) Description() string { return "List health-check alerts, optionally filtered by case or severity." }
func (t *GetAlertsTool) Schema() json.RawMessage {
	return GenerateSchema("get_alerts", GetAlertsInput{})
}

func (t *GetAlertsTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetAlertsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	alerts, err := t.store.ListAlerts(ctx, corpus.AlertFilter{
		CaseNumber: in.CaseNumber,
		Severity:   severityOrEmpty(in.Severity),
	})
	if err != nil {
		return Fail("list alerts: " + err.Error())
	}
	return OK(alerts)
}

// GetConnectionsInput is get_connections's input type.
type GetConnectionsInput struct {
	CaseNumber string `json:"case_number,omitempty" jsonschema:"description=Restrict to connections mentioning this case"`
	Type       string `json:"type,omitempty" jsonschema:"description=Restrict to this connection type"`
}

// GetConnectionsTool returns filtered cross-case connections.
type GetConnectionsTool struct {
	store corpus.Store
}

// NewGetConnectionsTool creates the get_connections tool.
func NewGetConnectionsTool(store corpus.Store) *GetConnectionsTool {
	return &GetConnectionsTool{store: store}
}

func (t *GetConnectionsTool) Name() string { return "get_connections" }
func (t *GetConnectionsTool) Description() string {
	return "List cross-case connections, optionally filtered by case or connection type."
}
func (t *GetConnectionsTool) Schema() json.RawMessage {
	return GenerateSchema("get_connections", GetConnectionsInput{})
}

func (t *GetConnectionsTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetConnectionsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	conns, err := t.store.ListConnections(ctx, corpus.ConnectionFilter{
		CaseNumber: in.CaseNumber,
		Type:       connectionTypeOrEmpty(in.Type),
	})
	if err != nil {
		return Fail("list connections: " + err.Error())
	}
	return OK(conns)
}
