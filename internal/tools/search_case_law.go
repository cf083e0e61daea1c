package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/case-nexus/internal/tools/caselaw"
)

// SearchCaseLawInput is search_case_law's input type.
type SearchCaseLawInput struct {
	Query string `json:"query" jsonschema:"required,description=Case-law search query"`
	Court string `json:"court,omitempty" jsonschema:"description=Restrict results to this court"`
}

// SearchCaseLawTool performs a grounded web search for case law.
type SearchCaseLawTool struct {
	client *caselaw.Client
}

// NewSearchCaseLawTool creates the search_case_law tool.
func NewSearchCaseLawTool(client *caselaw.Client) *SearchCaseLawTool {
	return &SearchCaseLawTool{client: client}
}

func (t *SearchCaseLawTool) Name() string { return "search_case_law" }
func (t *SearchCaseLawTool) Description() string {
	return "Search the web for case law matching a query, optionally restricted to a court."
}
func (t *SearchCaseLawTool) Schema() json.RawMessage {
	return GenerateSchema("search_case_law", SearchCaseLawInput{})
}

func (t *SearchCaseLawTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in SearchCaseLawInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	results, err := t.client.Search(ctx, in.Query, in.Court)
	if err != nil {
		return Fail("case law search failed: " + err.Error())
	}
	return OK(results)
}

// SearchPrecedentsForChargesInput is search_precedents_for_charges's input type.
type SearchPrecedentsForChargesInput struct {
	Charges []string `json:"charges" jsonschema:"required,description=Charge names to find relevant precedent for"`
}

// SearchPrecedentsForChargesTool ranks precedents across a set of charges.
type SearchPrecedentsForChargesTool struct {
	client *caselaw.Client
}

// NewSearchPrecedentsForChargesTool creates the search_precedents_for_charges tool.
func NewSearchPrecedentsForChargesTool(client *caselaw.Client) *SearchPrecedentsForChargesTool {
	return &SearchPrecedentsForChargesTool{client: client}
}

func (t *SearchPrecedentsForChargesTool) Name() string { return "search_precedents_for_charges" }
func (t *SearchPrecedentsForChargesTool) Description() string {
	return "Search for precedents relevant to a list of charges, ranked by relevance across all charges searched."
}
func (t *SearchPrecedentsForChargesTool) Schema() json.RawMessage {
	return GenerateSchema("search_precedents_for_charges", SearchPrecedentsForChargesInput{})
}

func (t *SearchPrecedentsForChargesTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in SearchPrecedentsForChargesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	if len(in.Charges) == 0 {
		return Fail("charges is required")
	}

	seen := make(map[string]bool)
	var ranked []caselaw.Result
	for _, charge := range in.Charges {
		results, err := t.client.Search(ctx, "precedent case law "+charge, "")
		if err != nil {
			continue // one failed charge shouldn't fail the whole call
		}
		for _, r := range results {
			if r.URL != "" && seen[r.URL] {
				continue
			}
			if r.URL != "" {
				seen[r.URL] = true
			}
			ranked = append(ranked, r)
		}
	}
	if len(ranked) == 0 {
		return Fail("no precedents found for charges: " + joinCharges(in.Charges))
	}
	return OK(ranked)
}

func joinCharges(charges []string) string {
	out := ""
	for i, c := range charges {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
