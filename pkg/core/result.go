package core

// ResultStatus discriminates agent outcomes. Expected failure modes travel
// as data so the orchestrator's step loop stays exception-free.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusPartial ResultStatus = "partial"
)

// AgentResult is the tagged result of one agent invocation. Payload carries
// the named fields that output bindings extract; Warnings accompany partial
// results.
type AgentResult struct {
	Status   ResultStatus   `json:"status"`
	Message  string         `json:"message,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Succeed builds a success result with the given payload.
func Succeed(payload map[string]any) *AgentResult {
	return &AgentResult{Status: StatusSuccess, Payload: payload}
}

// Fail builds an error result. Declared outputs of the step stay unresolved.
func Fail(message string) *AgentResult {
	return &AgentResult{Status: StatusError, Message: message}
}

// PartialResult builds a partial result: payload fields are bound, warnings
// are surfaced in the execution log.
func PartialResult(payload map[string]any, warnings ...string) *AgentResult {
	return &AgentResult{Status: StatusPartial, Payload: payload, Warnings: warnings}
}

// Field returns a named payload field.
func (r *AgentResult) Field(name string) (any, bool) {
	if r == nil || r.Payload == nil {
		return nil, false
	}
	v, ok := r.Payload[name]
	return v, ok
}

// Failed reports whether the result carries an error status.
func (r *AgentResult) Failed() bool {
	return r == nil || r.Status == StatusError
}
