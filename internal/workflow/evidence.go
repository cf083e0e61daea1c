package workflow

import (
	"context"
	"fmt"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

const evidenceThinkingBudget = 15_000

const evidenceSystemPrompt = `You are analyzing one piece of evidence for a public defender. Describe what it shows, assess its evidentiary weight, and flag any chain-of-custody or authentication concerns.`

// RunEvidenceAnalysis analyzes one evidence item, attaching its image (or
// video poster frame) when available and falling back to a text-only call
// over the evidence record otherwise (spec §4.6 workflow 5).
func (e *Engine) RunEvidenceAnalysis(ctx context.Context, clientID, caseNumber, evidenceID string) (string, error) {
	items, err := e.store.GetEvidence(ctx, caseNumber)
	if err != nil {
		return "", fmt.Errorf("get evidence for %s: %w", caseNumber, err)
	}

	var item models.EvidenceItem
	found := false
	for _, it := range items {
		if it.ID == evidenceID {
			item, found = it, true
			break
		}
	}
	if !found {
		return "", corpus.ErrNotFound
	}

	prompt := fmt.Sprintf("Evidence type: %s\nTitle: %s\nDescription: %s\n", item.Type, item.Title, item.Description)

	var attachments []models.Attachment
	if item.HasMedia() {
		path := item.MediaPath
		kind := "image"
		if path == "" {
			path = item.PosterPath
			kind = "video poster frame"
		}
		attachments = append(attachments, models.Attachment{Type: attachmentTypeFor(item), URL: path})
		prompt += fmt.Sprintf("A %s is attached.\n", kind)
	}

	result, err := e.runner.Run(ctx, streaming.Request{
		ClientID:       clientID,
		Analysis:       models.AnalysisEvidence,
		SystemPrompt:   evidenceSystemPrompt,
		UserPrompt:     prompt,
		ThinkingBudget: e.thinkingBudget("evidence", evidenceThinkingBudget),
		PriorMessages:  attachmentMessage(attachments),
	})
	if err != nil {
		return "", err
	}

	if _, err := e.appendInsight(ctx, models.AnalysisEvidence, caseNumber, map[string]string{"evidence_id": evidenceID, "text": result.Text}); err != nil {
		return "", err
	}
	e.emitResults(ctx, clientID, models.AnalysisEvidence, result.Text)
	return result.Text, nil
}

func attachmentTypeFor(item models.EvidenceItem) string {
	switch item.Type {
	case models.EvidenceDashcam, models.EvidenceSurveillance, models.EvidenceBodyCam:
		return "video"
	default:
		return "image"
	}
}

// attachmentMessage wraps attachments as a leading user-role message with no
// text content, so the runner's trailing prompt message carries the text
// while attachments still reach the provider on the same turn.
func attachmentMessage(attachments []models.Attachment) []llm.CompletionMessage {
	if len(attachments) == 0 {
		return nil
	}
	return []llm.CompletionMessage{{Role: "user", Attachments: attachments}}
}
