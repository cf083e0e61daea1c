// Package citations implements the Citation Verifier (C7): extracts
// candidate legal citations from generated text via deterministic pattern
// match, resolves them against a local exact-match index first, and falls
// back to a single batched grounded lookup for the rest (spec §4.7).
package citations

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// patterns are the three deterministic citation shapes spec §4.7 names.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`§\s*\d+-\d+-\d+`),                  // state code
	regexp.MustCompile(`\b\d+\s+U\.S\.\s+\d+\b`),           // federal reporter
	regexp.MustCompile(`\b\d+\s+[A-Z][A-Za-z.]*\s+\d+\b`), // common reporters
}

// Extract returns the unique candidate citations found in text, grouped by
// pattern (state code, then federal reporter, then common reporters) and in
// order of occurrence within each group.
func Extract(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllString(text, -1) {
			norm := Normalize(m)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			out = append(out, m)
		}
	}
	return out
}

// Normalize collapses whitespace so the same citation written with
// different spacing indexes to one entry.
func Normalize(citation string) string {
	fields := strings.Fields(citation)
	return strings.Join(fields, " ")
}

// Verdict classifies one citation's verification outcome.
type Verdict string

const (
	VerdictVerified  Verdict = "verified"
	VerdictNotFound  Verdict = "not_found"
	VerdictAmbiguous Verdict = "ambiguous"
)

// Entry is one citation's verification result.
type Entry struct {
	Citation   string  `json:"citation"`
	Normalized string  `json:"normalized"`
	CaseName   string  `json:"case_name,omitempty"`
	URL        string  `json:"url,omitempty"`
}

// Report is the verifier's output (spec §4.7 step 3).
type Report struct {
	Verified  []Entry `json:"verified"`
	NotFound  []Entry `json:"not_found"`
	Ambiguous []Entry `json:"ambiguous"`
}

// DegradedReport is emitted when the external provider is unreachable: the
// extracted set is still surfaced, unverified (spec §4.7 step 4).
type DegradedReport struct {
	Error          string   `json:"error"`
	LocalCitations []string `json:"local_citations"`
}

// Index is the local exact-match index consulted before any external call.
type Index interface {
	Lookup(normalized string) (Entry, Verdict, bool)
}

// ExternalVerifier issues the batched grounded verify_citations call for
// citations the local Index couldn't resolve.
type ExternalVerifier interface {
	VerifyBatch(ctx context.Context, citations []string) (map[string]Entry, map[string]Verdict, error)
}

// MemoryIndex is a simple in-process Index built from LegalFact citation
// tokens.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryIndex builds an index from (normalizedCitation -> Entry) pairs.
func NewMemoryIndex(known map[string]Entry) *MemoryIndex {
	idx := &MemoryIndex{entries: make(map[string]Entry, len(known))}
	for k, v := range known {
		idx.entries[Normalize(k)] = v
	}
	return idx
}

func (idx *MemoryIndex) Lookup(normalized string) (Entry, Verdict, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[normalized]
	if !ok {
		return Entry{}, "", false
	}
	return e, VerdictVerified, true
}

// Verifier runs the full pipeline described in spec §4.7.
type Verifier struct {
	index    Index
	external ExternalVerifier
}

// New creates a Verifier. external may be nil; in that case every citation
// not found locally is reported not_found rather than failing the call.
func New(index Index, external ExternalVerifier) *Verifier {
	return &Verifier{index: index, external: external}
}

// Verify extracts citations from text and classifies each one.
func (v *Verifier) Verify(ctx context.Context, text string) (Report, *DegradedReport) {
	candidates := Extract(text)
	if len(candidates) == 0 {
		return Report{}, nil
	}

	var report Report
	var unresolved []string
	for _, c := range candidates {
		norm := Normalize(c)
		if v.index != nil {
			if entry, verdict, ok := v.index.Lookup(norm); ok {
				entry.Citation = c
				entry.Normalized = norm
				appendByVerdict(&report, verdict, entry)
				continue
			}
		}
		unresolved = append(unresolved, c)
	}

	if len(unresolved) == 0 {
		sortReport(&report)
		return report, nil
	}

	if v.external == nil {
		for _, c := range unresolved {
			report.NotFound = append(report.NotFound, Entry{Citation: c, Normalized: Normalize(c)})
		}
		sortReport(&report)
		return report, nil
	}

	entries, verdicts, err := v.external.VerifyBatch(ctx, unresolved)
	if err != nil {
		return Report{}, &DegradedReport{Error: err.Error(), LocalCitations: candidates}
	}

	for _, c := range unresolved {
		norm := Normalize(c)
		entry := entries[norm]
		entry.Citation = c
		entry.Normalized = norm
		verdict, ok := verdicts[norm]
		if !ok {
			verdict = VerdictNotFound
		}
		appendByVerdict(&report, verdict, entry)
	}

	sortReport(&report)
	return report, nil
}

func appendByVerdict(report *Report, verdict Verdict, entry Entry) {
	switch verdict {
	case VerdictVerified:
		report.Verified = append(report.Verified, entry)
	case VerdictAmbiguous:
		report.Ambiguous = append(report.Ambiguous, entry)
	default:
		report.NotFound = append(report.NotFound, entry)
	}
}

func sortReport(report *Report) {
	sortEntries(report.Verified)
	sortEntries(report.NotFound)
	sortEntries(report.Ambiguous)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Normalized < entries[j].Normalized })
}
