package models

import "time"

// StreamEventKind is a closed enum of the Event Bus's frame shapes. The
// namespace a frame is published under is a deterministic function of the
// owning AnalysisType (see eventbus.NamespaceFor) composed with Kind —
// never ad hoc string concatenation at call sites.
type StreamEventKind string

const (
	EventThinkingStarted  StreamEventKind = "thinking_started"
	EventThinkingDelta    StreamEventKind = "thinking_delta"
	EventThinkingComplete StreamEventKind = "thinking_complete"
	EventResponseStarted  StreamEventKind = "response_started"
	EventResponseDelta    StreamEventKind = "response_delta"
	EventResponseComplete StreamEventKind = "response_complete"
	EventToolCall         StreamEventKind = "tool_call"
	EventToolResult       StreamEventKind = "tool_result"
	EventResults          StreamEventKind = "results"
	EventError            StreamEventKind = "error"
	EventPhase            StreamEventKind = "phase" // adversarial_phase
	EventProgress         StreamEventKind = "progress"

	// Bus-wide events, not namespaced by AnalysisType.
	EventTokenUpdate                 StreamEventKind = "token_update"
	EventCaseloadLoaded              StreamEventKind = "caseload_loaded"
	EventMemoryLoaded                StreamEventKind = "memory_loaded"
	EventLegalCorpusLoaded           StreamEventKind = "legal_corpus_loaded"
	EventStatus                      StreamEventKind = "status"
	EventAnalysisError               StreamEventKind = "analysis_error"
	EventCitationVerificationStarted StreamEventKind = "citation_verification_started"
	EventCitationVerificationResults StreamEventKind = "citation_verification_results"
)

// StreamEvent is one frame pushed to a connected client over the Event Bus.
type StreamEvent struct {
	// Name is the fully namespaced event name, e.g. "health_check_thinking_delta".
	Name      string          `json:"event"`
	Kind      StreamEventKind `json:"-"`
	Analysis  AnalysisType    `json:"-"`
	Sequence  uint64          `json:"seq"`
	Time      time.Time       `json:"time"`
	Droppable bool            `json:"-"`

	Text        string          `json:"text,omitempty"`
	FullText    string          `json:"full_text,omitempty"`
	Truncated   bool            `json:"truncated,omitempty"`
	Tool        *ToolInvocation `json:"tool,omitempty"`
	Tokens      *TokenTally     `json:"tokens,omitempty"`
	Phase       string          `json:"phase,omitempty"`
	PhaseNumber int             `json:"phase_number,omitempty"`
	Message     string          `json:"message,omitempty"`
	Results     any             `json:"results,omitempty"`
}
