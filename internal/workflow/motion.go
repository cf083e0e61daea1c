package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/citations"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const motionThinkingBudget = 25_000
const motionMaxOutputTokens = 64_000

const motionSystemPromptTemplate = `You are drafting a %s for a public defender. Ground every legal claim in the statutes, constitutional provisions, and case law provided below. Write the motion in full, citation-ready prose.`

// MotionResult is the Motion Generation workflow's output: the drafted
// motion plus the Citation Verifier's automatic pass over it (spec §4.6
// workflow 4: "triggers Citation Verifier (C7) automatically").
type MotionResult struct {
	Text              string                   `json:"text"`
	CitationReport    *citations.Report        `json:"citation_report,omitempty"`
	DegradedCitations *citations.DegradedReport `json:"degraded_citations,omitempty"`
}

// RunMotionGeneration drafts motionType for caseNumber and immediately
// verifies any citations it contains.
func (e *Engine) RunMotionGeneration(ctx context.Context, clientID, caseNumber, motionType string, legalTopics []string) (MotionResult, error) {
	caseContext, err := e.builder.BuildCaseContext(ctx, caseNumber)
	if err != nil {
		return MotionResult{}, fmt.Errorf("build case context: %w", err)
	}
	legalContext, err := e.builder.BuildLegalContext(ctx, legalTopics)
	if err != nil {
		return MotionResult{}, fmt.Errorf("build legal context: %w", err)
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:        clientID,
		Analysis:        models.AnalysisMotion,
		SystemPrompt:    fmt.Sprintf(motionSystemPromptTemplate, motionType),
		UserPrompt:      caseContext + "\n\nRelevant law:\n" + legalContext,
		ThinkingBudget:  e.thinkingBudget("motion", motionThinkingBudget),
		MaxOutputTokens: motionMaxOutputTokens,
	})
	if err != nil {
		return MotionResult{}, err
	}

	out := MotionResult{Text: result.Text}
	if e.citations != nil {
		e.publishGlobal(ctx, clientID, models.EventCitationVerificationStarted, models.StreamEvent{})
		report, degraded := e.citations.Verify(ctx, result.Text)
		out.CitationReport = &report
		out.DegradedCitations = degraded
		if degraded != nil {
			e.publishGlobal(ctx, clientID, models.EventCitationVerificationResults, models.StreamEvent{Results: degraded})
		} else {
			e.publishGlobal(ctx, clientID, models.EventCitationVerificationResults, models.StreamEvent{Results: report})
		}
	}

	if _, err := e.appendInsight(ctx, models.AnalysisMotion, caseNumber, out); err != nil {
		return MotionResult{}, err
	}
	e.emitResults(ctx, clientID, models.AnalysisMotion, out)
	return out, nil
}
