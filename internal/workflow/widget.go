package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const widgetThinkingBudget = 5_000

const widgetSystemPrompt = `You are a public defender's caseload assistant. The user is asking for an ad-hoc view of their caseload that isn't one of the fixed workflows. Answer with a single self-contained markdown document: a short heading, then whatever table, list, or summary best satisfies the request, drawing on the caseload context below.`

// RunWidget answers one free-form, ad-hoc request against the full caseload
// and returns a markdown document (spec §6 create_widget). Unlike the nine
// named workflows this has no dedicated Insight type beyond AnalysisWidget
// and is not retained as conversation history.
func (e *Engine) RunWidget(ctx context.Context, clientID, request string) (string, error) {
	caseloadContext, err := e.builder.BuildFullCaseloadContext(ctx)
	if err != nil {
		return "", fmt.Errorf("build full caseload context: %w", err)
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisWidget,
		SystemPrompt:   widgetSystemPrompt,
		UserPrompt:     "Caseload:\n" + caseloadContext + "\n\nRequest: " + request,
		ThinkingBudget: e.thinkingBudget("widget", widgetThinkingBudget),
	})
	if err != nil {
		return "", err
	}

	if _, err := e.appendInsight(ctx, models.AnalysisWidget, models.FullCaseloadScope, result.Text); err != nil {
		return "", err
	}

	e.emitResults(ctx, clientID, models.AnalysisWidget, result.Text)
	return result.Text, nil
}
