package models

// EvidenceType enumerates the kinds of EvidenceItem a case may hold.
type EvidenceType string

const (
	EvidenceDashcam      EvidenceType = "dashcam"
	EvidenceSurveillance EvidenceType = "surveillance"
	EvidenceBodyCam      EvidenceType = "body_cam"
	EvidencePhotograph   EvidenceType = "photograph"
	EvidenceDocument     EvidenceType = "document"
	EvidenceCrimeScene   EvidenceType = "crime_scene"
	EvidenceMedical      EvidenceType = "medical"
	EvidencePhysical     EvidenceType = "physical"
)

// EvidenceItem is bound to exactly one Case.
type EvidenceItem struct {
	ID          string       `json:"id"`
	CaseNumber  string       `json:"case_number"`
	Type        EvidenceType `json:"type"`
	MediaPath   string       `json:"media_path,omitempty"`
	PosterPath  string       `json:"poster_path,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
}

// HasMedia reports whether the item has a file an evidence-analysis call
// can attach (the image itself, or a video's poster frame).
func (e EvidenceItem) HasMedia() bool {
	return e.MediaPath != "" || e.PosterPath != ""
}
