// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"strings"
	"testing"

	"github.com/opencacm/adk/pkg/orchestrator"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertNotEqual asserts that two values are not equal.
func (a *Assertions) AssertNotEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected == actual {
		a.t.Errorf("%s: expected not %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertNil asserts that the value is nil.
func (a *Assertions) AssertNil(value any, msg string) {
	a.t.Helper()
	if value != nil {
		a.t.Errorf("%s: expected nil, got %v", msg, value)
		a.failed = true
	}
}

// AssertNotNil asserts that the value is not nil.
func (a *Assertions) AssertNotNil(value any, msg string) {
	a.t.Helper()
	if value == nil {
		a.t.Errorf("%s: expected non-nil value", msg)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertFalse asserts that the value is false.
func (a *Assertions) AssertFalse(value bool, msg string) {
	a.t.Helper()
	if value {
		a.t.Errorf("%s: expected false", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// AssertErrorContains asserts that the error message contains the substring.
func (a *Assertions) AssertErrorContains(err error, substr, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error containing %q, got nil", msg, substr)
		a.failed = true
		return
	}
	if !strings.Contains(err.Error(), substr) {
		a.t.Errorf("%s: error %q does not contain %q", msg, err.Error(), substr)
		a.failed = true
	}
}

// ReportAssertions provides fluent assertions for run reports.
type ReportAssertions struct {
	*Assertions
	report *orchestrator.Report
}

// AssertReport creates report assertions for the given run report.
func (a *Assertions) AssertReport(report *orchestrator.Report) *ReportAssertions {
	a.t.Helper()
	if report == nil {
		a.t.Error("report is nil")
		a.failed = true
		return &ReportAssertions{Assertions: a, report: &orchestrator.Report{}}
	}
	return &ReportAssertions{Assertions: a, report: report}
}

// Succeeded asserts the run finished fully successful.
func (r *ReportAssertions) Succeeded() *ReportAssertions {
	r.t.Helper()
	if !r.report.Success {
		r.t.Errorf("expected success, got state %s", r.report.State)
		r.failed = true
	}
	return r
}

// HasState asserts the run finished in the given state.
func (r *ReportAssertions) HasState(state orchestrator.RunState) *ReportAssertions {
	r.t.Helper()
	if r.report.State != state {
		r.t.Errorf("expected state %s, got %s", state, r.report.State)
		r.failed = true
	}
	return r
}

// HasOutput asserts a declared output was bound to the given value.
func (r *ReportAssertions) HasOutput(name string, value any) *ReportAssertions {
	r.t.Helper()
	got, ok := r.report.Outputs[name]
	if !ok {
		r.t.Errorf("output %q was not bound", name)
		r.failed = true
		return r
	}
	if got != value {
		r.t.Errorf("output %q: expected %v, got %v", name, value, got)
		r.failed = true
	}
	return r
}

// HasIntermediate asserts an intermediate value was bound.
func (r *ReportAssertions) HasIntermediate(name string, value any) *ReportAssertions {
	r.t.Helper()
	got, ok := r.report.Intermediate[name]
	if !ok {
		r.t.Errorf("intermediate %q was not bound", name)
		r.failed = true
		return r
	}
	if got != value {
		r.t.Errorf("intermediate %q: expected %v, got %v", name, value, got)
		r.failed = true
	}
	return r
}

// StepCaptured asserts the step ran and captured its outputs.
func (r *ReportAssertions) StepCaptured(stepID string) *ReportAssertions {
	return r.stepInState(stepID, orchestrator.StepCaptured)
}

// StepFailed asserts the step failed with the given failure kind.
func (r *ReportAssertions) StepFailed(stepID string, kind orchestrator.FailureKind) *ReportAssertions {
	r.t.Helper()
	r.stepInState(stepID, orchestrator.StepFailed)
	if sr, ok := r.report.Step(stepID); ok && sr.Failure != kind {
		r.t.Errorf("step %q: expected failure %s, got %s", stepID, kind, sr.Failure)
		r.failed = true
	}
	return r
}

// StepPending asserts the step never ran.
func (r *ReportAssertions) StepPending(stepID string) *ReportAssertions {
	return r.stepInState(stepID, orchestrator.StepPending)
}

func (r *ReportAssertions) stepInState(stepID string, state orchestrator.StepState) *ReportAssertions {
	r.t.Helper()
	sr, ok := r.report.Step(stepID)
	if !ok {
		r.t.Errorf("step %q not found in report", stepID)
		r.failed = true
		return r
	}
	if sr.State != state {
		r.t.Errorf("step %q: expected state %s, got %s", stepID, state, sr.State)
		r.failed = true
	}
	return r
}

// LogContains asserts an execution log entry contains the substring.
func (r *ReportAssertions) LogContains(substr string) *ReportAssertions {
	r.t.Helper()
	if r.report.Log == nil {
		r.t.Errorf("no execution log on report")
		r.failed = true
		return r
	}
	for _, entry := range r.report.Log.Entries() {
		if strings.Contains(entry.Message, substr) {
			return r
		}
	}
	r.t.Errorf("no log entry contains %q", substr)
	r.failed = true
	return r
}

// HasWarnings asserts the execution log carries at least one warning.
func (r *ReportAssertions) HasWarnings() *ReportAssertions {
	r.t.Helper()
	if r.report.Log == nil || !r.report.Log.HasLevel(orchestrator.LevelWarn) {
		r.t.Error("expected warnings in the execution log")
		r.failed = true
	}
	return r
}

// Quick assertion functions for common patterns

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireEqual fails the test immediately if values are not equal.
func RequireEqual(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// RequireNotNil fails the test immediately if value is nil.
func RequireNotNil(t *testing.T, value any, msg string) {
	t.Helper()
	if value == nil {
		t.Fatalf("%s: expected non-nil value", msg)
	}
}
