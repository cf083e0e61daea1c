// Package models holds the domain types shared across Case Nexus: cases,
// evidence, legal facts, health-check outputs, insights, and the wire types
// used by the LLM and event-streaming layers.
package models

import "time"

// Severity classifies a Case by the gravity of its charges.
type Severity string

const (
	SeverityFelony      Severity = "felony"
	SeverityMisdemeanor Severity = "misdemeanor"
)

// CaseStatus tracks a Case's position in the docket.
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "open"
	CaseStatusPending  CaseStatus = "pending"
	CaseStatusClosed   CaseStatus = "closed"
	CaseStatusDismissed CaseStatus = "dismissed"
)

// Case is one client file in the caseload. CaseNumber is the globally
// unique identifier other entities reference.
type Case struct {
	CaseNumber  string     `json:"case_number"`
	Defendant   string     `json:"defendant"`
	Severity    Severity   `json:"severity"`
	Status      CaseStatus `json:"status"`
	Charges     []string   `json:"charges"`
	FilingDate  time.Time  `json:"filing_date,omitempty"`
	ArrestDate  time.Time  `json:"arrest_date,omitempty"`
	HearingDate time.Time  `json:"hearing_date,omitempty"`
	Officer     string     `json:"officer,omitempty"`
	Judge       string     `json:"judge,omitempty"`
	Prosecutor  string     `json:"prosecutor,omitempty"`
	Witnesses   []string   `json:"witnesses,omitempty"`
	Bond        string     `json:"bond,omitempty"`
	PleaOffer   string     `json:"plea_offer,omitempty"`
	PriorRecord string     `json:"prior_record,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}
