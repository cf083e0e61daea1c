package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const hearingPrepThinkingBudget = 8_000

const hearingPrepSystemPrompt = `You are preparing a public defender for an upcoming hearing on this case. Produce a short brief: what to expect, key facts to have ready, and questions to anticipate.`

// RunHearingPrepBrief produces a short pre-hearing brief for caseNumber.
func (e *Engine) RunHearingPrepBrief(ctx context.Context, clientID, caseNumber string) (string, error) {
	caseContext, err := e.builder.BuildCaseContext(ctx, caseNumber)
	if err != nil {
		return "", fmt.Errorf("build case context: %w", err)
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisHearingPrep,
		SystemPrompt:   hearingPrepSystemPrompt,
		UserPrompt:     caseContext,
		ThinkingBudget: e.thinkingBudget("hearing_prep", hearingPrepThinkingBudget),
	})
	if err != nil {
		return "", err
	}

	if _, err := e.appendInsight(ctx, models.AnalysisHearingPrep, caseNumber, map[string]string{"text": result.Text}); err != nil {
		return "", err
	}
	e.emitResults(ctx, clientID, models.AnalysisHearingPrep, result.Text)
	return result.Text, nil
}
