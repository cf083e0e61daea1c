package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// healthCheckThinkingBudget is the ≈60K thinking budget spec §4.6 workflow 1
// names for the caseload-wide sweep.
const healthCheckThinkingBudget = 60_000

// healthCheckSystemPrompt positions the model to audit the full caseload.
const healthCheckSystemPrompt = `You are auditing a public defender's entire caseload for risks and patterns.
Produce a JSON object with exactly these keys: "alerts" (array of {severity: critical|warning|info, type, case_number or null, title, message, details}), "connections" (array of {connection_type, confidence (0-1), case_numbers (2+), title, description, actionable_suggestion}), and "priority_actions" (array of {case_number, action, urgency: this_week|this_month|routine, reason}). Return only the JSON object.`

// healthCheckPhases are the milestone labels the progress bar renders; they
// are hints derived from response-length heuristics, not a contract (spec
// §4.6 workflow 1).
var healthCheckPhases = []string{
	"Reviewing case files",
	"Cross-referencing officers and witnesses",
	"Identifying plea disparities",
	"Ranking priority actions",
	"Finalizing report",
}

// RunHealthCheck audits the full caseload and atomically replaces the
// Corpus Store's Alerts/Connections/PriorityActions.
func (e *Engine) RunHealthCheck(ctx context.Context, clientID string) (models.HealthCheckResult, error) {
	caseloadContext, err := e.builder.BuildFullCaseloadContext(ctx)
	if err != nil {
		return models.HealthCheckResult{}, fmt.Errorf("build full caseload context: %w", err)
	}

	phaseIdx := 0
	onDelta := func(totalLen int) {
		if e.bus == nil {
			return
		}
		// Heuristic: spread the 5 phases evenly across an assumed response
		// length; a real response rarely lands exactly on these marks, so
		// this only ever advances forward and never repeats a phase.
		const assumedResponseChars = 20_000
		target := (totalLen * len(healthCheckPhases)) / assumedResponseChars
		for target > phaseIdx && phaseIdx < len(healthCheckPhases) {
			e.bus.Publish(ctx, clientID, models.AnalysisHealthCheck, models.StreamEvent{
				Kind:        models.EventPhase,
				Phase:       healthCheckPhases[phaseIdx],
				PhaseNumber: phaseIdx + 1,
			})
			phaseIdx++
		}
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:        clientID,
		Analysis:        models.AnalysisHealthCheck,
		SystemPrompt:    healthCheckSystemPrompt,
		UserPrompt:      caseloadContext,
		ThinkingBudget:  e.thinkingBudget("health_check", healthCheckThinkingBudget),
		MaxOutputTokens: 16_000,
		OnResponseDelta: onDelta,
	})
	if err != nil {
		return models.HealthCheckResult{}, err
	}

	parsed, fallback := parseStructured[models.HealthCheckResult](result.Text)
	if fallback != nil {
		if e.bus != nil {
			e.bus.Publish(ctx, clientID, models.AnalysisHealthCheck, models.StreamEvent{
				Kind:    models.EventAnalysisError,
				Message: "health check response did not parse as structured JSON: " + fallback.Error,
			})
		}
		if _, err := e.appendInsight(ctx, models.AnalysisHealthCheck, models.FullCaseloadScope, fallback); err != nil {
			return models.HealthCheckResult{}, err
		}
		e.emitResults(ctx, clientID, models.AnalysisHealthCheck, fallback)
		return models.HealthCheckResult{}, nil
	}

	now := time.Now()
	for i := range parsed.Alerts {
		if parsed.Alerts[i].ID == "" {
			parsed.Alerts[i].ID = uuid.New().String()
		}
		parsed.Alerts[i].CreatedAt = now
	}
	for i := range parsed.Connections {
		if parsed.Connections[i].ID == "" {
			parsed.Connections[i].ID = uuid.New().String()
		}
		parsed.Connections[i].CreatedAt = now
	}

	if e.writer != nil {
		if err := e.writer.ReplaceHealthCheckResults(ctx, parsed.Alerts, parsed.Connections, parsed.PriorityActions); err != nil {
			return models.HealthCheckResult{}, fmt.Errorf("replace health check results: %w", err)
		}
	}

	if _, err := e.appendInsight(ctx, models.AnalysisHealthCheck, models.FullCaseloadScope, parsed); err != nil {
		return models.HealthCheckResult{}, err
	}

	e.emitResults(ctx, clientID, models.AnalysisHealthCheck, parsed)
	return parsed, nil
}
