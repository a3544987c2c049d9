package types

import "time"

// CallStatus is the lifecycle state of a tool invocation.
type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
)

// ToolCallRecord tracks the provenance of one tool invocation: its input,
// outcome and timing. Status is monotonic; a terminal record never
// transitions again.
type ToolCallRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Input       string     `json:"input"`
	Status      CallStatus `json:"status"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
	CompletedAt time.Time  `json:"completed_at,omitzero"`
}

// Terminal reports whether the record reached a final status.
func (r *ToolCallRecord) Terminal() bool {
	return r.Status == CallCompleted || r.Status == CallFailed
}

// Complete marks the record completed with the given output. It is a no-op
// on a record that is already terminal.
func (r *ToolCallRecord) Complete(output string, at time.Time) {
	if r.Terminal() {
		return
	}
	r.Status = CallCompleted
	r.Output = output
	r.CompletedAt = at
}

// Fail marks the record failed with the given error message. It is a no-op
// on a record that is already terminal.
func (r *ToolCallRecord) Fail(errMsg string, at time.Time) {
	if r.Terminal() {
		return
	}
	r.Status = CallFailed
	r.Error = errMsg
	r.CompletedAt = at
}

// StopReason is the terminal state of a planning run.
type StopReason string

const (
	StopAnswered      StopReason = "answered"
	StopMaxIterations StopReason = "max-iterations-reached"
	StopBackendError  StopReason = "backend-error"
	StopToolError     StopReason = "tool-error-unrecoverable"
)

// RunTrace is the ordered record of one planning run: every tool call it
// issued, the final answer text and the reason the run stopped.
type RunTrace struct {
	Records    []ToolCallRecord `json:"tool_calls"`
	Answer     string           `json:"answer"`
	StopReason StopReason       `json:"stop_reason"`
	Usage      Usage            `json:"usage"`
}

// CompletedCalls counts the records that finished successfully.
func (t *RunTrace) CompletedCalls() int {
	n := 0
	for i := range t.Records {
		if t.Records[i].Status == CallCompleted {
			n++
		}
	}
	return n
}
