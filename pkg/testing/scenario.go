// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package testing provides utilities for testing workflow runs.
//
// This package includes:
//   - Scenario definitions for declarative run testing
//   - A scripted skill invoker with invocation capture
//   - Assertion helpers for reports and common validations
//
// Example usage:
//
//	scenario := testing.NewScenario("ratio pipeline").
//	    WithInstance(inst).
//	    ExpectSuccess().
//	    ExpectOutput("summary", testing.Contains("nominal"))
//
//	report := scenario.Run(t, orch)
//	scenario.Assert(t, report)
package testing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/opencacm/adk/pkg/cacm"
	"github.com/opencacm/adk/pkg/orchestrator"
)

// Runner executes a workflow instance. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, inst *cacm.Instance) *orchestrator.Report
}

// Scenario defines a declarative test case for a workflow run.
type Scenario struct {
	name          string
	description   string
	instance      *cacm.Instance
	context       context.Context
	timeout       time.Duration
	expectations  []Expectation
	setupFuncs    []func() error
	teardownFuncs []func() error
}

// Expectation defines a condition to verify against a run report.
type Expectation interface {
	// Check verifies the expectation against the report.
	Check(report *orchestrator.Report) error
	// Description returns a human-readable description of the expectation.
	Description() string
}

// NewScenario creates a new test scenario with the given name.
func NewScenario(name string) *Scenario {
	return &Scenario{
		name:         name,
		timeout:      30 * time.Second,
		context:      context.Background(),
		expectations: make([]Expectation, 0),
	}
}

// WithDescription adds a description to the scenario.
func (s *Scenario) WithDescription(desc string) *Scenario {
	s.description = desc
	return s
}

// WithInstance sets the workflow instance to run.
func (s *Scenario) WithInstance(inst *cacm.Instance) *Scenario {
	s.instance = inst
	return s
}

// WithContext sets the context for the scenario.
func (s *Scenario) WithContext(ctx context.Context) *Scenario {
	s.context = ctx
	return s
}

// WithTimeout sets the timeout for the scenario.
func (s *Scenario) WithTimeout(d time.Duration) *Scenario {
	s.timeout = d
	return s
}

// WithSetup adds a setup function to run before the scenario.
func (s *Scenario) WithSetup(fn func() error) *Scenario {
	s.setupFuncs = append(s.setupFuncs, fn)
	return s
}

// WithTeardown adds a teardown function to run after the scenario.
func (s *Scenario) WithTeardown(fn func() error) *Scenario {
	s.teardownFuncs = append(s.teardownFuncs, fn)
	return s
}

// Expect adds an expectation to the scenario.
func (s *Scenario) Expect(exp Expectation) *Scenario {
	s.expectations = append(s.expectations, exp)
	return s
}

// ExpectSuccess expects the run to finish fully successful.
func (s *Scenario) ExpectSuccess() *Scenario {
	return s.Expect(&stateExpectation{state: orchestrator.StateDoneSuccess})
}

// ExpectState expects the run to finish in the given state.
func (s *Scenario) ExpectState(state orchestrator.RunState) *Scenario {
	return s.Expect(&stateExpectation{state: state})
}

// ExpectOutput expects a declared output matching the given matcher.
func (s *Scenario) ExpectOutput(name string, matcher StringMatcher) *Scenario {
	return s.Expect(&outputExpectation{name: name, matcher: matcher})
}

// ExpectStepCaptured expects the step to have run and captured its outputs.
func (s *Scenario) ExpectStepCaptured(stepID string) *Scenario {
	return s.Expect(&stepStateExpectation{stepID: stepID, state: orchestrator.StepCaptured})
}

// ExpectStepFailed expects the step to have failed with the given kind.
func (s *Scenario) ExpectStepFailed(stepID string, kind orchestrator.FailureKind) *Scenario {
	return s.Expect(&stepFailureExpectation{stepID: stepID, kind: kind})
}

// ExpectWarnings expects at least one warning in the execution log.
func (s *Scenario) ExpectWarnings() *Scenario {
	return s.Expect(&warningsExpectation{})
}

// ExpectMaxDuration expects the run to complete within the given duration.
func (s *Scenario) ExpectMaxDuration(d time.Duration) *Scenario {
	return s.Expect(&maxDurationExpectation{max: d})
}

// Run executes the scenario against the given runner.
func (s *Scenario) Run(t *testing.T, runner Runner) *orchestrator.Report {
	t.Helper()

	if s.instance == nil {
		t.Fatalf("scenario %q has no instance", s.name)
	}

	for _, setup := range s.setupFuncs {
		if err := setup(); err != nil {
			t.Fatalf("scenario %q setup failed: %v", s.name, err)
		}
	}
	defer func() {
		for _, teardown := range s.teardownFuncs {
			if err := teardown(); err != nil {
				t.Errorf("scenario %q teardown failed: %v", s.name, err)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(s.context, s.timeout)
	defer cancel()

	return runner.Run(ctx, s.instance)
}

// Assert checks all expectations and reports failures to the test.
func (s *Scenario) Assert(t *testing.T, report *orchestrator.Report) {
	t.Helper()
	for _, exp := range s.expectations {
		if err := exp.Check(report); err != nil {
			t.Errorf("scenario %q: expectation %q failed: %v", s.name, exp.Description(), err)
		}
	}
}

// StringMatcher defines how to match strings in expectations.
type StringMatcher interface {
	Match(s string) bool
	Description() string
}

// Contains returns a matcher that checks if the string contains the substring.
func Contains(substr string) StringMatcher {
	return &containsMatcher{substr: substr}
}

// Equals returns a matcher that checks exact string equality.
func Equals(expected string) StringMatcher {
	return &equalsMatcher{expected: expected}
}

// Regex returns a matcher that checks against a regular expression.
func Regex(pattern string) StringMatcher {
	return &regexMatcher{pattern: pattern}
}

// HasPrefix returns a matcher that checks if the string has the given prefix.
func HasPrefix(prefix string) StringMatcher {
	return &prefixMatcher{prefix: prefix}
}

type containsMatcher struct {
	substr string
}

func (m *containsMatcher) Match(s string) bool {
	return strings.Contains(s, m.substr)
}

func (m *containsMatcher) Description() string {
	return fmt.Sprintf("contains %q", m.substr)
}

type equalsMatcher struct {
	expected string
}

func (m *equalsMatcher) Match(s string) bool {
	return s == m.expected
}

func (m *equalsMatcher) Description() string {
	return fmt.Sprintf("equals %q", m.expected)
}

type regexMatcher struct {
	pattern string
}

func (m *regexMatcher) Match(s string) bool {
	re, err := regexp.Compile(m.pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (m *regexMatcher) Description() string {
	return fmt.Sprintf("matches regex %q", m.pattern)
}

type prefixMatcher struct {
	prefix string
}

func (m *prefixMatcher) Match(s string) bool {
	return strings.HasPrefix(s, m.prefix)
}

func (m *prefixMatcher) Description() string {
	return fmt.Sprintf("has prefix %q", m.prefix)
}

// Expectation implementations

type stateExpectation struct {
	state orchestrator.RunState
}

func (e *stateExpectation) Check(r *orchestrator.Report) error {
	if r.State != e.state {
		return fmt.Errorf("expected state %s, got %s", e.state, r.State)
	}
	return nil
}

func (e *stateExpectation) Description() string {
	return fmt.Sprintf("run state %s", e.state)
}

type outputExpectation struct {
	name    string
	matcher StringMatcher
}

func (e *outputExpectation) Check(r *orchestrator.Report) error {
	value, ok := r.Outputs[e.name]
	if !ok {
		return fmt.Errorf("output %q was not bound", e.name)
	}
	s := fmt.Sprintf("%v", value)
	if !e.matcher.Match(s) {
		return fmt.Errorf("output %q = %q does not match: %s", e.name, s, e.matcher.Description())
	}
	return nil
}

func (e *outputExpectation) Description() string {
	return fmt.Sprintf("output %q %s", e.name, e.matcher.Description())
}

type stepStateExpectation struct {
	stepID string
	state  orchestrator.StepState
}

func (e *stepStateExpectation) Check(r *orchestrator.Report) error {
	sr, ok := r.Step(e.stepID)
	if !ok {
		return fmt.Errorf("step %q not found", e.stepID)
	}
	if sr.State != e.state {
		return fmt.Errorf("expected state %s, got %s", e.state, sr.State)
	}
	return nil
}

func (e *stepStateExpectation) Description() string {
	return fmt.Sprintf("step %q in state %s", e.stepID, e.state)
}

type stepFailureExpectation struct {
	stepID string
	kind   orchestrator.FailureKind
}

func (e *stepFailureExpectation) Check(r *orchestrator.Report) error {
	sr, ok := r.Step(e.stepID)
	if !ok {
		return fmt.Errorf("step %q not found", e.stepID)
	}
	if sr.State != orchestrator.StepFailed {
		return fmt.Errorf("expected step to fail, got state %s", sr.State)
	}
	if sr.Failure != e.kind {
		return fmt.Errorf("expected failure %s, got %s", e.kind, sr.Failure)
	}
	return nil
}

func (e *stepFailureExpectation) Description() string {
	return fmt.Sprintf("step %q failed with %s", e.stepID, e.kind)
}

type warningsExpectation struct{}

func (e *warningsExpectation) Check(r *orchestrator.Report) error {
	if r.Log == nil || !r.Log.HasLevel(orchestrator.LevelWarn) {
		return fmt.Errorf("no warnings in execution log")
	}
	return nil
}

func (e *warningsExpectation) Description() string {
	return "warnings logged"
}

type maxDurationExpectation struct {
	max time.Duration
}

func (e *maxDurationExpectation) Check(r *orchestrator.Report) error {
	d := r.FinishedAt.Sub(r.StartedAt)
	if d > e.max {
		return fmt.Errorf("duration %v exceeds maximum %v", d, e.max)
	}
	return nil
}

func (e *maxDurationExpectation) Description() string {
	return fmt.Sprintf("duration <= %v", e.max)
}
