package citations

import (
	"context"
	"testing"
)

func TestExtractFindsAllThreePatterns(t *testing.T) {
	text := "See § 16-5-21 and 410 U.S. 113, also 347 U.S. 483 (1954)."
	got := Extract(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique citations, got %d: %v", len(got), got)
	}
}

func TestExtractDeduplicatesByNormalizedForm(t *testing.T) {
	text := "347 U.S. 483 appears twice: 347  U.S.  483."
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("expected duplicates with different spacing to collapse to 1, got %d: %v", len(got), got)
	}
}

type stubIndex struct {
	known map[string]Entry
}

func (s stubIndex) Lookup(normalized string) (Entry, Verdict, bool) {
	e, ok := s.known[normalized]
	return e, VerdictVerified, ok
}

func TestVerifyUsesLocalIndexBeforeExternalCall(t *testing.T) {
	idx := stubIndex{known: map[string]Entry{
		"347 U.S. 483": {CaseName: "Brown v. Board of Education"},
	}}
	v := New(idx, nil)

	report, degraded := v.Verify(context.Background(), "Cites 347 U.S. 483 for the proposition.")
	if degraded != nil {
		t.Fatalf("unexpected degraded report: %+v", degraded)
	}
	if len(report.Verified) != 1 || report.Verified[0].CaseName != "Brown v. Board of Education" {
		t.Fatalf("expected one verified entry from the local index, got %+v", report)
	}
}

func TestVerifyFallsBackToNotFoundWithoutExternalVerifier(t *testing.T) {
	v := New(nil, nil)
	report, degraded := v.Verify(context.Background(), "Cites 999 U.S. 999 which is unknown.")
	if degraded != nil {
		t.Fatalf("unexpected degraded report: %+v", degraded)
	}
	if len(report.NotFound) != 1 {
		t.Fatalf("expected one not_found entry, got %+v", report)
	}
}

type erroringExternal struct{}

func (erroringExternal) VerifyBatch(ctx context.Context, cites []string) (map[string]Entry, map[string]Verdict, error) {
	return nil, nil, context.DeadlineExceeded
}

func TestVerifyDegradesGracefullyWhenExternalProviderFails(t *testing.T) {
	v := New(nil, erroringExternal{})
	report, degraded := v.Verify(context.Background(), "Cites 999 U.S. 999.")
	if degraded == nil {
		t.Fatal("expected a degraded report when the external verifier fails")
	}
	if len(degraded.LocalCitations) != 1 {
		t.Fatalf("expected the extracted set to still be surfaced, got %v", degraded.LocalCitations)
	}
	if report.Verified != nil || report.NotFound != nil {
		t.Fatalf("expected an empty report alongside the degraded result, got %+v", report)
	}
}
