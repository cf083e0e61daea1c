package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const clientLetterThinkingBudget = 5_000

const clientLetterSystemPrompt = `You are writing a plain-language letter to a criminal defendant explaining the current status of their case. Avoid legal jargon; write at an eighth-grade reading level. Output plain text only, no markdown.`

// RunClientLetter produces a plain-language status letter for caseNumber.
func (e *Engine) RunClientLetter(ctx context.Context, clientID, caseNumber string) (string, error) {
	caseContext, err := e.builder.BuildCaseContext(ctx, caseNumber)
	if err != nil {
		return "", fmt.Errorf("build case context: %w", err)
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisClientLetter,
		SystemPrompt:   clientLetterSystemPrompt,
		UserPrompt:     caseContext,
		ThinkingBudget: e.thinkingBudget("client_letter", clientLetterThinkingBudget),
	})
	if err != nil {
		return "", err
	}

	if _, err := e.appendInsight(ctx, models.AnalysisClientLetter, caseNumber, map[string]string{"text": result.Text}); err != nil {
		return "", err
	}
	e.emitResults(ctx, clientID, models.AnalysisClientLetter, result.Text)
	return result.Text, nil
}
