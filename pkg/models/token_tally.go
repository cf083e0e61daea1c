package models

// TokenTally is the process-wide cumulative token count maintained by the
// Token Accountant (C10). It only ever grows.
type TokenTally struct {
	TotalInput    int64 `json:"total_input"`
	TotalOutput   int64 `json:"total_output"`
	TotalThinking int64 `json:"total_thinking"`
	CallCount     int64 `json:"call_count"`
}

// TokenDelta is the authoritative per-call usage reported by the LLM
// provider at stream completion, applied to the TokenTally.
type TokenDelta struct {
	Input    int64
	Output   int64
	Thinking int64
}

// Add returns a new TokenTally with delta applied; it never mutates t.
func (t TokenTally) Add(d TokenDelta) TokenTally {
	return TokenTally{
		TotalInput:    t.TotalInput + d.Input,
		TotalOutput:   t.TotalOutput + d.Output,
		TotalThinking: t.TotalThinking + d.Thinking,
		CallCount:     t.CallCount + 1,
	}
}
