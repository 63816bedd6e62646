package model

// ModelInfo describes a single model exposed by a provider's list_models call.
type ModelInfo struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}

// BatchStatus is the union of batch-submission lifecycle states across
// providers.
type BatchStatus string

const (
	BatchSubmitted BatchStatus = "SUBMITTED"
	BatchProcessing BatchStatus = "PROCESSING"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
	BatchExpired   BatchStatus = "EXPIRED"
)

// BatchRequest is a single unit of work submitted as part of a batch call,
// addressed by an opaque custom ID the caller uses to correlate results.
type BatchRequest struct {
	CustomID string
	System   string
	User     string
	JSONMode bool
}

// BatchResult is a single per-request outcome returned by get_batch_results.
// Error is non-empty exactly when the request failed; Text/Usage are the
// zero value in that case.
type BatchResult struct {
	CustomID string
	Text     string
	Usage    TokenUsage
	Error    string
}

// EscalationDecision is the JSON object a base model is asked to emit under
// the adaptive escalation protocol.
type EscalationDecision struct {
	NeedsEscalation bool    `json:"needs_escalation"`
	Confidence      float64 `json:"confidence"`
	Reason          string  `json:"reason"`
	Response        string  `json:"response"`
}
