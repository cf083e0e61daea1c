// Package corpus implements the Corpus Store (C1): deterministic read
// access to cases, evidence, legal facts, and the most recent health-check
// output. Cases/Evidence/LegalFacts are loaded once per session and treated
// as immutable; Alerts/Connections/PriorityActions are replaced wholesale by
// each health-check run (spec §3 Lifecycle).
package corpus

import (
	"context"
	"errors"
	"time"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// ErrNotFound is returned when a lookup by key has no match.
var ErrNotFound = errors.New("corpus: not found")

// CaseFilter narrows search_cases. Zero-value fields are unconstrained.
type CaseFilter struct {
	Officer   string
	Charge    string
	Status    models.CaseStatus
	DateFrom  time.Time
	DateTo    time.Time
}

// LegalFilter narrows search_legal.
type LegalFilter struct {
	Term         string
	Jurisdiction string
}

// AlertFilter narrows get_alerts.
type AlertFilter struct {
	CaseNumber string
	Severity   models.AlertSeverity
}

// ConnectionFilter narrows get_connections.
type ConnectionFilter struct {
	CaseNumber string
	Type       models.ConnectionType
}

// Store is the read interface every tool and the Context Builder depend on.
// All returns are snapshots; implementations must never hand back a
// reference a caller could mutate.
type Store interface {
	GetCase(ctx context.Context, caseNumber string) (models.Case, error)
	GetCaseMarkdown(ctx context.Context, caseNumber string) (string, error)
	SearchCases(ctx context.Context, filter CaseFilter) ([]string, error)

	GetLegalFact(ctx context.Context, citationToken string) (models.LegalFact, error)
	SearchLegal(ctx context.Context, filter LegalFilter) ([]models.LegalFact, error)

	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	ListConnections(ctx context.Context, filter ConnectionFilter) ([]models.Connection, error)
	ListPriorityActions(ctx context.Context) ([]models.PriorityAction, error)

	GetEvidence(ctx context.Context, caseNumber string) ([]models.EvidenceItem, error)

	// AllCaseNumbers returns every known case number, ascending, for the
	// Context Builder's full-caseload concatenation.
	AllCaseNumbers(ctx context.Context) ([]string, error)
}

// HealthCheckWriter is the narrow write surface the health-check workflow
// uses to replace Alerts/Connections/PriorityActions wholesale (spec §3
// Lifecycle: "previous ones are superseded").
type HealthCheckWriter interface {
	ReplaceHealthCheckResults(ctx context.Context, alerts []models.Alert, connections []models.Connection, actions []models.PriorityAction) error
}
