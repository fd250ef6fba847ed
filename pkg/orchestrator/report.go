// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator executes workflow instances: it validates the
// document, resolves step bindings, dispatches capability-bound agents and
// aggregates outcomes into a run report. Step failures are recorded and the
// run continues; only validation failure aborts before the first step.
package orchestrator

import "time"

// RunState is the lifecycle state of a run.
type RunState string

const (
	StateValidating         RunState = "validating"
	StateExecuting          RunState = "executing"
	StateDoneSuccess        RunState = "done_success"
	StateDonePartialFailure RunState = "done_partial_failure"
	StateDoneFailed         RunState = "done_failed"
)

// StepState is the lifecycle state of a single step.
type StepState string

const (
	StepPending         StepState = "pending"
	StepResolvingInputs StepState = "resolving_inputs"
	StepDispatched      StepState = "dispatched"
	StepCaptured        StepState = "captured"
	StepFailed          StepState = "failed"
)

// FailureKind classifies why a step failed.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureCapabilityNotFound  FailureKind = "capability_not_found"
	FailureAgentConstruction   FailureKind = "agent_construction"
	FailureUnresolvedBinding   FailureKind = "unresolved_binding"
	FailureExecution           FailureKind = "execution"
	FailureTimeout             FailureKind = "timeout"
)

// StepReport records the outcome of one step.
type StepReport struct {
	StepID        string         `json:"stepId"`
	CapabilityRef string         `json:"capabilityRef"`
	State         StepState      `json:"state"`
	Failure       FailureKind    `json:"failure,omitempty"`
	Error         string         `json:"error,omitempty"`
	Inputs        map[string]any `json:"inputs,omitempty"`
	StartedAt     time.Time      `json:"startedAt,omitempty"`
	FinishedAt    time.Time      `json:"finishedAt,omitempty"`
}

// Duration returns the step's wall time.
func (s *StepReport) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Report is the aggregate outcome of a run. Success is true only when every
// step captured its outputs; a failed run still carries whatever outputs
// were bound before the failure.
type Report struct {
	RunID        string         `json:"runId"`
	SessionID    string         `json:"sessionId"`
	CACMID       string         `json:"cacmId"`
	Success      bool           `json:"success"`
	State        RunState       `json:"state"`
	Outputs      map[string]any `json:"outputs"`
	Intermediate map[string]any `json:"intermediate,omitempty"`
	Steps        []StepReport   `json:"steps"`
	Log          *ExecutionLog  `json:"log"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

// Step returns the report for stepID, if present.
func (r *Report) Step(stepID string) (*StepReport, bool) {
	for i := range r.Steps {
		if r.Steps[i].StepID == stepID {
			return &r.Steps[i], true
		}
	}
	return nil, false
}
