// Package contextbuilder implements the Context Builder (C2): the shared
// textual corpus stitched into every workflow prompt. Token estimation
// follows the teacher's chars-per-token heuristic (internal/compaction);
// everything here is a pure function of its inputs (spec §4.2 invariant).
package contextbuilder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// charsPerToken is the approximate character-to-token ratio used to cap
// build_legal_context at LegalContextTokenCap without a real tokenizer.
const charsPerToken = 4

// LegalContextTokenCap bounds build_legal_context's output (spec §4.2).
const LegalContextTokenCap = 30_000

// DefaultMemoryLimit is the default MEMORY_LIMIT for build_memory_context.
const DefaultMemoryLimit = 5

func estimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// InsightSource is the narrow read surface the Context Builder needs from
// the Insight Log; kept local to avoid a dependency cycle.
type InsightSource interface {
	List(ctx context.Context, scope, analysisType string, limit int) ([]models.Insight, error)
}

// Builder assembles prompt context from the Corpus Store and Insight Log.
type Builder struct {
	store               corpus.Store
	insights            InsightSource
	legalContextTokenCap int
}

// SetLegalContextTokenCap overrides LegalContextTokenCap (the
// LEGAL_CONTEXT_TOKEN_CAP environment knob spec §6 names). A zero or
// negative value restores the package default.
func (b *Builder) SetLegalContextTokenCap(tokenCap int) {
	b.legalContextTokenCap = tokenCap
}

func (b *Builder) legalBudget() int {
	if b.legalContextTokenCap > 0 {
		return b.legalContextTokenCap
	}
	return LegalContextTokenCap
}

// New creates a Builder.
func New(store corpus.Store, insights InsightSource) *Builder {
	return &Builder{store: store, insights: insights}
}

// BuildFullCaseloadContext concatenates get_case_markdown for every case in
// case_number ascending order with a stable separator. It writes directly
// into a strings.Builder so the ~275K-token result is never duplicated in
// memory (spec §4.2).
func (b *Builder) BuildFullCaseloadContext(ctx context.Context) (string, error) {
	caseNumbers, err := b.store.AllCaseNumbers(ctx)
	if err != nil {
		return "", fmt.Errorf("list case numbers: %w", err)
	}

	var out strings.Builder
	for i, cn := range caseNumbers {
		md, err := b.store.GetCaseMarkdown(ctx, cn)
		if err != nil {
			return "", fmt.Errorf("render case %s: %w", cn, err)
		}
		if i > 0 {
			out.WriteString(caseloadSeparator)
		}
		out.WriteString(md)
	}
	return out.String(), nil
}

// caseloadSeparator matches the one used when rendering a single case so
// concatenation reads as one continuous document.
const caseloadSeparator = "\n---\n\n"

// BuildCaseContext returns the focal case plus prior insights scoped to it
// (newest first) plus any caseload-wide alerts/connections mentioning it.
func (b *Builder) BuildCaseContext(ctx context.Context, caseNumber string) (string, error) {
	md, err := b.store.GetCaseMarkdown(ctx, caseNumber)
	if err != nil {
		return "", fmt.Errorf("render case %s: %w", caseNumber, err)
	}

	var out strings.Builder
	out.WriteString(md)

	if b.insights != nil {
		priorInsights, err := b.insights.List(ctx, caseNumber, "", 0)
		if err != nil {
			return "", fmt.Errorf("list prior insights for %s: %w", caseNumber, err)
		}
		if len(priorInsights) > 0 {
			out.WriteString("\n\nPrior analyses:\n")
			for _, ins := range priorInsights {
				fmt.Fprintf(&out, "- [%s] %s: %s\n", ins.Timestamp.Format("2006-01-02"), ins.AnalysisType, string(ins.Payload))
			}
		}
	}

	alerts, err := b.store.ListAlerts(ctx, corpus.AlertFilter{CaseNumber: caseNumber})
	if err != nil {
		return "", fmt.Errorf("list alerts for %s: %w", caseNumber, err)
	}
	if len(alerts) > 0 {
		out.WriteString("\nCaseload alerts mentioning this case:\n")
		for _, a := range alerts {
			fmt.Fprintf(&out, "- [%s] %s: %s\n", a.Severity, a.Title, a.Message)
		}
	}

	connections, err := b.store.ListConnections(ctx, corpus.ConnectionFilter{CaseNumber: caseNumber})
	if err != nil {
		return "", fmt.Errorf("list connections for %s: %w", caseNumber, err)
	}
	if len(connections) > 0 {
		out.WriteString("\nCross-case connections:\n")
		for _, c := range connections {
			fmt.Fprintf(&out, "- [%s] %s (cases: %s)\n", c.Type, c.Title, strings.Join(c.CaseNumbers, ", "))
		}
	}

	return out.String(), nil
}

// BuildLegalContext returns a compact digest of statutes, amendments, and
// landmark cases relevant to topics, capped at LegalContextTokenCap tokens.
func (b *Builder) BuildLegalContext(ctx context.Context, topics []string) (string, error) {
	seen := make(map[string]bool)
	var facts []models.LegalFact
	for _, topic := range topics {
		matches, err := b.store.SearchLegal(ctx, corpus.LegalFilter{Term: topic})
		if err != nil {
			return "", fmt.Errorf("search legal facts for %q: %w", topic, err)
		}
		for _, lf := range matches {
			if seen[lf.CitationToken] {
				continue
			}
			seen[lf.CitationToken] = true
			facts = append(facts, lf)
		}
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].CitationToken < facts[j].CitationToken })

	var out strings.Builder
	budget := b.legalBudget()
	for _, lf := range facts {
		entry := renderLegalFact(lf)
		if estimateTokens(out.String())+estimateTokens(entry) > budget {
			break
		}
		out.WriteString(entry)
	}
	return out.String(), nil
}

func renderLegalFact(lf models.LegalFact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%s)\n", lf.Title, lf.CitationToken)
	if lf.Jurisdiction != "" {
		fmt.Fprintf(&b, "Jurisdiction: %s\n", lf.Jurisdiction)
	}
	if lf.Holding != "" {
		fmt.Fprintf(&b, "Holding: %s\n", lf.Holding)
	}
	if lf.Summary != "" {
		fmt.Fprintf(&b, "%s\n", lf.Summary)
	}
	b.WriteString("\n")
	return b.String()
}

// BuildMemoryContext returns up to memoryLimit most recent insights for
// scope, rendered with type, timestamp, and condensed payload. A zero or
// negative limit falls back to DefaultMemoryLimit.
func (b *Builder) BuildMemoryContext(ctx context.Context, scope string, memoryLimit int) (string, error) {
	if b.insights == nil {
		return "", nil
	}
	if memoryLimit <= 0 {
		memoryLimit = DefaultMemoryLimit
	}

	recent, err := b.insights.List(ctx, scope, "", memoryLimit)
	if err != nil {
		return "", fmt.Errorf("list memory for scope %q: %w", scope, err)
	}

	var out strings.Builder
	for _, ins := range recent {
		fmt.Fprintf(&out, "- [%s] %s (%s): %s\n",
			ins.Timestamp.Format(time.RFC3339), ins.AnalysisType, ins.Scope, condensePayload(ins.Payload))
	}
	return out.String(), nil
}

func condensePayload(payload []byte) string {
	const maxChars = 512
	s := string(payload)
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "…"
}
