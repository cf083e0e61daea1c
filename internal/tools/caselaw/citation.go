package caselaw

import "regexp"

// citationPattern is a loose match for "Name v. Name, 123 U.S. 456 (1990)"
// style citations embedded in search snippets. The Citation Verifier
// (internal/citations) owns the authoritative extraction patterns for
// model-generated text; this is only for labeling search results.
var citationPattern = regexp.MustCompile(`\b\d+\s+[A-Z][A-Za-z.]*\s+\d+\b(?:\s*\(\d{4}\))?`)

func extractCitation(text string) string {
	return citationPattern.FindString(text)
}
