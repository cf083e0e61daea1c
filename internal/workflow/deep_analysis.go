package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const deepAnalysisThinkingBudget = 40_000

const deepAnalysisSystemPrompt = `You are a public defender's lead case strategist. Produce a JSON object with exactly these keys: "executive_summary", "prosecution_strength_score" (0-100), "key_facts" (array), "defense_strategies" (array), "evidence_analysis", "constitutional_issues" (array), "witness_analysis", "plea_recommendation" ({recommendation, conviction_probability 0-1}), "recommended_motions" (array), "action_timeline" (array), "overall_assessment". Return only the JSON object.`

// RunDeepCaseAnalysis produces a full structured assessment of one case.
func (e *Engine) RunDeepCaseAnalysis(ctx context.Context, clientID, caseNumber string) (models.DeepAnalysisResult, error) {
	caseContext, err := e.builder.BuildCaseContext(ctx, caseNumber)
	if err != nil {
		return models.DeepAnalysisResult{}, fmt.Errorf("build case context: %w", err)
	}
	memoryContext, err := e.builder.BuildMemoryContext(ctx, caseNumber, e.memoryLimit())
	if err != nil {
		return models.DeepAnalysisResult{}, fmt.Errorf("build memory context: %w", err)
	}

	prompt := caseContext
	if memoryContext != "" {
		prompt += "\n\nPrior analysis memory:\n" + memoryContext
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:        clientID,
		Analysis:        models.AnalysisDeepAnalysis,
		SystemPrompt:    deepAnalysisSystemPrompt,
		UserPrompt:      prompt,
		ThinkingBudget:  e.thinkingBudget("deep_analysis", deepAnalysisThinkingBudget),
		MaxOutputTokens: 16_000,
	})
	if err != nil {
		return models.DeepAnalysisResult{}, err
	}

	parsed, fallback := parseStructured[models.DeepAnalysisResult](result.Text)
	if fallback != nil {
		if _, err := e.appendInsight(ctx, models.AnalysisDeepAnalysis, caseNumber, fallback); err != nil {
			return models.DeepAnalysisResult{}, err
		}
		e.emitResults(ctx, clientID, models.AnalysisDeepAnalysis, fallback)
		return models.DeepAnalysisResult{}, nil
	}

	if _, err := e.appendInsight(ctx, models.AnalysisDeepAnalysis, caseNumber, parsed); err != nil {
		return models.DeepAnalysisResult{}, err
	}
	e.emitResults(ctx, clientID, models.AnalysisDeepAnalysis, parsed)
	return parsed, nil
}
