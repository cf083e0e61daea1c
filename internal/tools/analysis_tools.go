package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/case-nexus/internal/insights"
)

// GetPriorAnalysesInput is get_prior_analyses's input type.
type GetPriorAnalysesInput struct {
	Scope        string `json:"scope,omitempty" jsonschema:"description=Case number or full_caseload; empty means any"`
	AnalysisType string `json:"type,omitempty" jsonschema:"description=Restrict to this analysis_type; empty means any"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum insights to return, newest first"`
}

// GetPriorAnalysesTool lists completed analyses from the Insight Log.
type GetPriorAnalysesTool struct {
	log insights.Log
}

// NewGetPriorAnalysesTool creates the get_prior_analyses tool.
func NewGetPriorAnalysesTool(log insights.Log) *GetPriorAnalysesTool {
	return &GetPriorAnalysesTool{log: log}
}

func (t *GetPriorAnalysesTool) Name() string { return "get_prior_analyses" }
func (t *GetPriorAnalysesTool) Description() string {
	return "List prior completed analyses (Insights), newest first, optionally filtered by scope and type."
}
func (t *GetPriorAnalysesTool) Schema() json.RawMessage {
	return GenerateSchema("get_prior_analyses", GetPriorAnalysesInput{})
}

func (t *GetPriorAnalysesTool) Execute(ctx context.Context, input json.RawMessage) Result {
	var in GetPriorAnalysesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Fail("decode input: " + err.Error())
	}
	list, err := t.log.List(ctx, in.Scope, in.AnalysisType, in.Limit)
	if err != nil {
		return Fail("list insights: " + err.Error())
	}
	return OK(list)
}
