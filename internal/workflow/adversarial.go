package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const (
	prosecutionThinkingBudget = 20_000
	defenseThinkingBudget     = 20_000
	judgeThinkingBudget       = 20_000
)

const prosecutionSystemPrompt = `You are the prosecutor assigned to this case. Build the state's strongest argument for conviction using only the record provided.`
const defenseSystemPrompt = `You are defense counsel. The prosecutor's argument below is final and verbatim. Dismantle it point by point using the case record.`
const judgeSystemPrompt = `You are an impartial judge. Below are the prosecution's argument and the defense's rebuttal, both verbatim. Produce an objective synthesis of the case's strengths and weaknesses.`

// AdversarialResult is the three-phase chain's output (spec §4.6 workflow 3).
type AdversarialResult struct {
	Prosecution string `json:"prosecution"`
	Defense     string `json:"defense"`
	Judge       string `json:"judge"`
	FailedPhase string `json:"failed_phase,omitempty"`
}

// RunAdversarialSimulation chains prosecution -> defense -> judge, each
// phase seeing the prior phases' full text verbatim. A phase's failure
// surfaces as that phase's error and skips the rest (spec §4.6 workflow 3).
func (e *Engine) RunAdversarialSimulation(ctx context.Context, clientID, caseNumber string) (AdversarialResult, error) {
	caseContext, err := e.builder.BuildCaseContext(ctx, caseNumber)
	if err != nil {
		return AdversarialResult{}, fmt.Errorf("build case context: %w", err)
	}

	var out AdversarialResult

	e.emitPhase(ctx, clientID, models.AnalysisProsecution, "Prosecution argument", 1)
	prosecution, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisProsecution,
		SystemPrompt:   prosecutionSystemPrompt,
		UserPrompt:     caseContext,
		ThinkingBudget: e.thinkingBudget("adversarial", prosecutionThinkingBudget),
	})
	if err != nil {
		out.FailedPhase = "prosecution"
		e.emitResults(ctx, clientID, models.AnalysisAdversarial, out)
		return out, nil
	}
	out.Prosecution = prosecution.Text

	e.emitPhase(ctx, clientID, models.AnalysisDefense, "Defense rebuttal", 2)
	defense, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisDefense,
		SystemPrompt:   defenseSystemPrompt,
		UserPrompt:     caseContext + "\n\nProsecution's argument:\n" + out.Prosecution,
		ThinkingBudget: e.thinkingBudget("adversarial", defenseThinkingBudget),
	})
	if err != nil {
		out.FailedPhase = "defense"
		e.emitResults(ctx, clientID, models.AnalysisAdversarial, out)
		return out, nil
	}
	out.Defense = defense.Text

	e.emitPhase(ctx, clientID, models.AnalysisJudge, "Judicial synthesis", 3)
	judge, err := e.runner.Run(ctx, streaming.Request{
		ClientID:     clientID,
		Analysis:     models.AnalysisJudge,
		SystemPrompt: judgeSystemPrompt,
		UserPrompt: caseContext +
			"\n\nProsecution's argument:\n" + out.Prosecution +
			"\n\nDefense's rebuttal:\n" + out.Defense,
		ThinkingBudget: e.thinkingBudget("adversarial", judgeThinkingBudget),
	})
	if err != nil {
		out.FailedPhase = "judge"
		e.emitResults(ctx, clientID, models.AnalysisAdversarial, out)
		return out, nil
	}
	out.Judge = judge.Text

	if _, err := e.appendInsight(ctx, models.AnalysisAdversarial, caseNumber, out); err != nil {
		return out, err
	}
	e.emitResults(ctx, clientID, models.AnalysisAdversarial, out)
	return out, nil
}

func (e *Engine) emitPhase(ctx context.Context, clientID string, analysis models.AnalysisType, phase string, phaseNumber int) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, clientID, analysis, models.StreamEvent{
		Kind:        models.EventPhase,
		Phase:       phase,
		PhaseNumber: phaseNumber,
	})
}
