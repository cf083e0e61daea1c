package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/case-nexus/internal/toolloop"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const cascadeThinkingBudget = 30_000

const cascadeSystemPrompt = `You are an autonomous investigator for a public defender's office, with tools to inspect cases, evidence, legal facts, prior analyses, and case law. Investigate the caseload for the highest-leverage interventions available right now. When you are done, write a strategic brief followed by a JSON actions list: a line starting with "ACTIONS:" followed by a JSON array of {label, reason, action_type, case_number, urgency: this_week|this_month|routine}.`

// RunCascadeIntelligence runs the Tool Loop over all registered tools to
// produce a caseload-wide strategic brief plus a structured actions list
// (spec §4.6 workflow 9).
func (e *Engine) RunCascadeIntelligence(ctx context.Context, clientID string) (models.CascadeResult, error) {
	result, err := e.loop.Run(ctx, toolloop.Request{
		ClientID:          clientID,
		Analysis:          models.AnalysisCascade,
		SystemPrompt:      cascadeSystemPrompt,
		InitialUserPrompt: "Investigate the caseload and recommend the highest-leverage next actions.",
		MaxRounds:         e.maxRounds(),
		ThinkingBudget:    e.thinkingBudget("cascade", cascadeThinkingBudget),
	})
	if err != nil {
		return models.CascadeResult{}, err
	}

	brief, actions := splitCascadeResponse(result.Text)
	out := models.CascadeResult{Brief: brief, Actions: actions}

	if _, err := e.appendInsight(ctx, models.AnalysisCascade, models.FullCaseloadScope, out); err != nil {
		return models.CascadeResult{}, fmt.Errorf("append cascade insight: %w", err)
	}
	e.emitResults(ctx, clientID, models.AnalysisCascade, out)
	return out, nil
}

// splitCascadeResponse pulls the "ACTIONS:" JSON tail off the free-form
// brief. If the tail is absent or fails to parse, the full text is kept as
// the brief and Actions is left empty rather than failing the workflow.
func splitCascadeResponse(text string) (string, []models.CascadeAction) {
	const marker = "ACTIONS:"
	idx := strings.LastIndex(text, marker)
	if idx < 0 {
		return text, nil
	}

	brief := strings.TrimSpace(text[:idx])
	tail := text[idx+len(marker):]

	start := strings.Index(tail, "[")
	end := strings.LastIndex(tail, "]")
	if start < 0 || end < start {
		return text, nil
	}

	var actions []models.CascadeAction
	if err := json.Unmarshal([]byte(tail[start:end+1]), &actions); err != nil {
		return text, nil
	}
	return brief, actions
}
