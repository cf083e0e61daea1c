package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const chatThinkingBudget = 20_000

const chatSystemPrompt = `You are a public defender's caseload assistant. Answer questions about the caseload below, drawing on the full case record and the conversation so far.`

// RunCaseloadChat runs one turn of the multi-turn Caseload Chat workflow.
// Turn history is kept per client in the Engine and is not otherwise
// persisted (spec §4.6 workflow 6).
func (e *Engine) RunCaseloadChat(ctx context.Context, clientID, userMessage string) (string, error) {
	caseloadContext, err := e.builder.BuildFullCaseloadContext(ctx)
	if err != nil {
		return "", fmt.Errorf("build full caseload context: %w", err)
	}

	e.chatMu.Lock()
	history := append([]llm.CompletionMessage{}, e.chatHistory[clientID]...)
	e.chatMu.Unlock()

	prompt := userMessage
	if len(history) == 0 {
		prompt = "Caseload:\n" + caseloadContext + "\n\nQuestion: " + userMessage
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisChat,
		SystemPrompt:   chatSystemPrompt,
		UserPrompt:     prompt,
		ThinkingBudget: e.thinkingBudget("chat", chatThinkingBudget),
		PriorMessages:  history,
	})
	if err != nil {
		return "", err
	}

	e.chatMu.Lock()
	e.chatHistory[clientID] = append(history,
		llm.CompletionMessage{Role: "user", Content: prompt},
		llm.CompletionMessage{Role: "assistant", Content: result.Text},
	)
	e.chatMu.Unlock()

	e.emitResults(ctx, clientID, models.AnalysisChat, result.Text)
	return result.Text, nil
}

// ClearChat resets clientID's turn history (the clear_chat control command).
func (e *Engine) ClearChat(clientID string) {
	e.chatMu.Lock()
	defer e.chatMu.Unlock()
	delete(e.chatHistory, clientID)
}
