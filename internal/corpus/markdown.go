package corpus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// renderCaseMarkdown produces the stable human-readable rendering spec §4.1
// requires: charges, actors, dates, plea, witnesses, evidence summary, notes.
// The layout is fixed so build_full_caseload_context is deterministic across
// calls for the same snapshot.
func renderCaseMarkdown(c models.Case, evidence []models.EvidenceItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Case %s: %s\n\n", c.CaseNumber, c.Defendant)
	fmt.Fprintf(&b, "- Severity: %s\n", c.Severity)
	fmt.Fprintf(&b, "- Status: %s\n", c.Status)
	if len(c.Charges) > 0 {
		fmt.Fprintf(&b, "- Charges: %s\n", strings.Join(c.Charges, "; "))
	}
	if !c.FilingDate.IsZero() {
		fmt.Fprintf(&b, "- Filed: %s\n", c.FilingDate.Format("2006-01-02"))
	}
	if !c.ArrestDate.IsZero() {
		fmt.Fprintf(&b, "- Arrested: %s\n", c.ArrestDate.Format("2006-01-02"))
	}
	if !c.HearingDate.IsZero() {
		fmt.Fprintf(&b, "- Next hearing: %s\n", c.HearingDate.Format("2006-01-02"))
	}
	if c.Officer != "" {
		fmt.Fprintf(&b, "- Officer: %s\n", c.Officer)
	}
	if c.Judge != "" {
		fmt.Fprintf(&b, "- Judge: %s\n", c.Judge)
	}
	if c.Prosecutor != "" {
		fmt.Fprintf(&b, "- Prosecutor: %s\n", c.Prosecutor)
	}
	if len(c.Witnesses) > 0 {
		witnesses := append([]string(nil), c.Witnesses...)
		sort.Strings(witnesses)
		fmt.Fprintf(&b, "- Witnesses: %s\n", strings.Join(witnesses, ", "))
	}
	if c.Bond != "" {
		fmt.Fprintf(&b, "- Bond: %s\n", c.Bond)
	}
	if c.PleaOffer != "" {
		fmt.Fprintf(&b, "- Plea offer: %s\n", c.PleaOffer)
	}
	if c.PriorRecord != "" {
		fmt.Fprintf(&b, "- Prior record: %s\n", c.PriorRecord)
	}

	if len(evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for _, e := range evidence {
			fmt.Fprintf(&b, "- [%s] %s\n", e.Type, e.Title)
		}
	}

	if c.Notes != "" {
		b.WriteString("\nNotes:\n")
		b.WriteString(c.Notes)
		b.WriteString("\n")
	}

	return b.String()
}

// caseloadSeparator delimits per-case markdown in the full-caseload context.
const caseloadSeparator = "\n---\n\n"
