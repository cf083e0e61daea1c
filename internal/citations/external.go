package citations

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/case-nexus/internal/tools/caselaw"
)

// GroundedVerifier implements ExternalVerifier with one grounded search per
// citation, the whole batch handled by one VerifyBatch call (spec §4.7 step
// 2: "a single grounded verify_citations tool call (batched)").
type GroundedVerifier struct {
	client *caselaw.Client
}

// NewGroundedVerifier wraps a caselaw.Client as an ExternalVerifier.
func NewGroundedVerifier(client *caselaw.Client) *GroundedVerifier {
	return &GroundedVerifier{client: client}
}

// VerifyBatch looks each citation up via the grounded search client. A
// single result whose snippet or citation field contains the citation is
// "verified"; multiple candidate matches are "ambiguous"; zero is
// "not_found". One citation's lookup failure marks it "not_found" without
// failing the batch; when every lookup fails, the search backend is treated
// as unavailable and the last lookup error is returned.
func (g *GroundedVerifier) VerifyBatch(ctx context.Context, cites []string) (map[string]Entry, map[string]Verdict, error) {
	entries := make(map[string]Entry, len(cites))
	verdicts := make(map[string]Verdict, len(cites))

	var lastErr error
	failed := 0
	for _, c := range cites {
		norm := Normalize(c)
		results, err := g.client.Search(ctx, c, "")
		if err != nil {
			verdicts[norm] = VerdictNotFound
			failed++
			lastErr = err
			continue
		}

		matches := filterMatching(results, c)
		switch len(matches) {
		case 0:
			verdicts[norm] = VerdictNotFound
		case 1:
			verdicts[norm] = VerdictVerified
			entries[norm] = Entry{CaseName: matches[0].CaseName, URL: matches[0].URL}
		default:
			verdicts[norm] = VerdictAmbiguous
			entries[norm] = Entry{CaseName: matches[0].CaseName, URL: matches[0].URL}
		}
	}
	if len(cites) > 0 && failed == len(cites) {
		return nil, nil, fmt.Errorf("grounded citation search failed: %w", lastErr)
	}
	return entries, verdicts, nil
}

func filterMatching(results []caselaw.Result, citation string) []caselaw.Result {
	norm := Normalize(citation)
	var out []caselaw.Result
	for _, r := range results {
		if strings.Contains(Normalize(r.Snippet), norm) || strings.Contains(Normalize(r.Citation), norm) {
			out = append(out, r)
		}
	}
	return out
}
