package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/case-nexus/internal/citations"
)

// VerifyCitationsInput is verify_citations's input type.
type VerifyCitationsInput struct {
	Citations []string `json:"citations" jsonschema:"required,description=Candidate citation strings to verify"`
}

// VerifyCitationsTool runs the batched grounded lookup the Citation
// Verifier falls back to once the local index is exhausted.
type VerifyCitationsTool struct {
	external citations.ExternalVerifier
}

// NewVerifyCitationsTool creates the verify_citations tool.
func NewVerifyCitationsTool(external citations.ExternalVerifier) *VerifyCitationsTool {
	return &VerifyCitationsTool{external: external}
}

func (t *VerifyCitationsTool) Name() string { return "verify_citations" }
func (t *VerifyCitationsTool) Description() string {
	return "Verify a batch of legal citations, returning verified/not_found/ambiguous per entry."
}
func (t *VerifyCitationsTool) Schema() json.RawMessage {
	return GenerateSchema("verify_citations", VerifyCitationsInput{})
}

func (t *VerifyCitationsTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in VerifyCitationsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	if len(in.Citations) == 0 {
		return Fail("citations is required")
	}

	entries, verdicts, err := t.external.VerifyBatch(ctx, in.Citations)
	if err != nil {
		return Fail("verify citations: " + err.Error())
	}

	out := make([]map[string]any, 0, len(in.Citations))
	for _, c := range in.Citations {
		norm := citations.Normalize(c)
		entry := entries[norm]
		verdict := verdicts[norm]
		if verdict == "" {
			verdict = citations.VerdictNotFound
		}
		out = append(out, map[string]any{
			"citation":   c,
			"normalized": norm,
			"verdict":    verdict,
			"case_name":  entry.CaseName,
			"url":        entry.URL,
		})
	}
	return OK(out)
}
