package models

import (
	"encoding/json"
	"time"
)

// AnalysisType is a closed enum of the nine workflows. It is also the
// source of the Event Bus's namespace prefixes (see eventbus.NamespaceFor).
type AnalysisType string

const (
	AnalysisHealthCheck  AnalysisType = "health_check"
	AnalysisDeepAnalysis AnalysisType = "deep_analysis"
	AnalysisAdversarial  AnalysisType = "adversarial"
	AnalysisProsecution  AnalysisType = "prosecution"
	AnalysisDefense      AnalysisType = "defense"
	AnalysisJudge        AnalysisType = "judge"
	AnalysisMotion       AnalysisType = "motion"
	AnalysisEvidence     AnalysisType = "evidence"
	AnalysisChat         AnalysisType = "chat"
	AnalysisHearingPrep  AnalysisType = "hearing_prep"
	AnalysisClientLetter AnalysisType = "client_letter"
	AnalysisCascade      AnalysisType = "cascade"
	AnalysisWidget       AnalysisType = "widget"
)

// FullCaseloadScope is the sentinel scope for caseload-wide analyses.
const FullCaseloadScope = "full_caseload"

// Insight is one completed analysis run. It is immutable once appended.
type Insight struct {
	ID           string          `json:"id"`
	AnalysisType AnalysisType    `json:"analysis_type"`
	Scope        string          `json:"scope"` // FullCaseloadScope or a case_number
	Payload      json.RawMessage `json:"payload"`
	Timestamp    time.Time       `json:"timestamp"`
	Sequence     uint64          `json:"sequence"`
}

// IsCaseloadWide reports whether the insight's scope is the full caseload
// rather than a single case.
func (i Insight) IsCaseloadWide() bool {
	return i.Scope == FullCaseloadScope
}
