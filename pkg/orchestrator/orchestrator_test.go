package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/opencacm/adk/pkg/binding"
	"github.com/opencacm/adk/pkg/cacm"
	"github.com/opencacm/adk/pkg/core"
	"github.com/opencacm/adk/pkg/errors"
)

// agentFunc adapts a function to core.Agent for tests.
type agentFunc struct {
	name string
	fn   func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error)
}

func (a *agentFunc) Name() string { return a.name }

func (a *agentFunc) Run(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
	return a.fn(ctx, task, inputs, sc)
}

// fakeProvider serves agents from a fixed map.
type fakeProvider struct {
	agents map[string]core.Agent
}

func (p *fakeProvider) GetOrCreate(ctx context.Context, capabilityID string) (core.Agent, error) {
	agent, ok := p.agents[capabilityID]
	if !ok {
		return nil, errors.New(errors.CodeCapabilityNotFound, "capability not in catalog", nil).
			WithContext("capability", capabilityID)
	}
	return agent, nil
}

func echoAgent(name string) core.Agent {
	return &agentFunc{name: name, fn: func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
		payload := make(map[string]any, len(inputs))
		for k, v := range inputs {
			payload[k] = v
		}
		return core.Succeed(payload), nil
	}}
}

func newTestOrchestrator(t *testing.T, provider core.AgentProvider, timeout time.Duration) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Agents:      provider,
		Logger:      slog.Default(),
		StepTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

func TestRunEchoChain(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-echo-chain",
		Outputs: map[string]cacm.OutputDef{
			"x": {Type: "string"},
			"y": {Type: "string"},
		},
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"in": "hello"},
				OutputBindings: map[string]string{"in": "cacm.outputs.x"},
			},
			{
				StepID:         "s2",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"in": "cacm.outputs.x"},
				OutputBindings: map[string]string{"in": "cacm.outputs.y"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if !report.Success || report.State != StateDoneSuccess {
		t.Fatalf("expected success, got %+v", report)
	}
	if report.Outputs["x"] != "hello" || report.Outputs["y"] != "hello" {
		t.Fatalf("unexpected outputs: %+v", report.Outputs)
	}
	for _, step := range report.Steps {
		if step.State != StepCaptured {
			t.Fatalf("expected all steps captured: %+v", report.Steps)
		}
	}
}

func TestRunUnresolvedBindingFailsStepWithoutDispatch(t *testing.T) {
	dispatched := false
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": &agentFunc{name: "echo", fn: func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
			dispatched = true
			return core.Succeed(inputs), nil
		}},
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID:      "cacm-missing-ref",
		Outputs: map[string]cacm.OutputDef{"y": {}},
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"in": "cacm.outputs.missingKey"},
				OutputBindings: map[string]string{"in": "cacm.outputs.y"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if report.Success {
		t.Fatal("expected failure")
	}
	if dispatched {
		t.Fatal("step must fail before dispatch")
	}
	step, _ := report.Step("s1")
	if step.State != StepFailed || step.Failure != FailureUnresolvedBinding {
		t.Fatalf("unexpected step: %+v", step)
	}
	if _, ok := report.Outputs["y"]; ok {
		t.Fatal("dependent output must stay unbound")
	}
	// The snapshot records what could not be resolved.
	sentinel, ok := step.Inputs["in"]
	if !ok || !strings.Contains(strings.ToLower(toString(sentinel)), "unresolved") {
		t.Fatalf("expected unresolved sentinel in snapshot, got %v", sentinel)
	}
	if !report.Log.HasLevel(LevelWarn) {
		t.Fatal("expected WARN entry for unresolved binding")
	}
}

func TestUnresolvedSentinelNamesReference(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-sentinel",
		Workflow: []cacm.Step{
			{
				StepID:        "s1",
				CapabilityRef: "echo",
				InputBindings: map[string]any{"ratios": "intermediate.ratios"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	step, _ := report.Step("s1")
	sentinel, ok := step.Inputs["ratios"].(binding.Unresolved)
	if !ok {
		t.Fatalf("expected binding.Unresolved in snapshot, got %T", step.Inputs["ratios"])
	}
	if sentinel.Ref != "intermediate.ratios" {
		t.Fatalf("sentinel must carry the reference text, got %q", sentinel.Ref)
	}
	if sentinel.String() != "<unresolved:intermediate.ratios>" {
		t.Fatalf("unexpected sentinel rendering: %q", sentinel.String())
	}
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func TestRunDeepInputPath(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-deep-path",
		Inputs: map[string]cacm.InputDef{
			"catalystParams": {Value: map[string]any{"clientId": "ACME"}},
		},
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"client": "cacm.inputs.catalystParams.value.clientId"},
				OutputBindings: map[string]string{"client": "intermediate.client"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if !report.Success {
		t.Fatalf("expected success, got %+v", report)
	}
	if report.Intermediate["client"] != "ACME" {
		t.Fatalf("unexpected intermediate: %+v", report.Intermediate)
	}
}

func TestRunFailForward(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
		"bad": &agentFunc{name: "bad", fn: func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
			return core.Fail("backend unavailable"), nil
		}},
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID:      "cacm-fail-forward",
		Outputs: map[string]cacm.OutputDef{"a": {}, "c": {}},
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"v": "first"},
				OutputBindings: map[string]string{"v": "cacm.outputs.a"},
			},
			{
				StepID:        "s2",
				CapabilityRef: "bad",
			},
			{
				StepID:         "s3",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"v": "third"},
				OutputBindings: map[string]string{"v": "cacm.outputs.c"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if report.Success {
		t.Fatal("expected aggregate failure")
	}
	if report.State != StateDonePartialFailure {
		t.Fatalf("expected partial failure, got %s", report.State)
	}
	// Earlier and later outputs are both preserved.
	if report.Outputs["a"] != "first" || report.Outputs["c"] != "third" {
		t.Fatalf("unexpected outputs: %+v", report.Outputs)
	}
	step, _ := report.Step("s2")
	if step.Failure != FailureExecution || step.Error != "backend unavailable" {
		t.Fatalf("unexpected failed step: %+v", step)
	}
}

func TestRunRequiredStepStopsRun(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-required",
		Workflow: []cacm.Step{
			{StepID: "s1", CapabilityRef: "ghost", Required: true},
			{StepID: "s2", CapabilityRef: "echo"},
		},
	}

	report := o.Run(context.Background(), inst)
	if report.State != StateDoneFailed {
		t.Fatalf("expected done_failed, got %s", report.State)
	}
	s1, _ := report.Step("s1")
	if s1.Failure != FailureCapabilityNotFound {
		t.Fatalf("unexpected failure kind: %+v", s1)
	}
	s2, _ := report.Step("s2")
	if s2.State != StepPending {
		t.Fatalf("remaining steps must stay pending, got %+v", s2)
	}
}

func TestRunValidationFailureAbortsBeforeSteps(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{}}
	o := newTestOrchestrator(t, provider, 0)

	report := o.Run(context.Background(), &cacm.Instance{})
	if report.State != StateDoneFailed || report.Success {
		t.Fatalf("expected validation failure, got %+v", report)
	}
	if len(report.Steps) != 0 {
		t.Fatalf("no steps must execute: %+v", report.Steps)
	}
	if !report.Log.HasLevel(LevelError) {
		t.Fatal("expected ERROR entries for validation issues")
	}
}

func TestRunStepTimeout(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"slow": &agentFunc{name: "slow", fn: func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
			time.Sleep(200 * time.Millisecond)
			return core.Succeed(nil), nil
		}},
	}}
	o := newTestOrchestrator(t, provider, 10*time.Millisecond)

	inst := &cacm.Instance{
		ID:       "cacm-timeout",
		Workflow: []cacm.Step{{StepID: "s1", CapabilityRef: "slow"}},
	}

	report := o.Run(context.Background(), inst)
	step, _ := report.Step("s1")
	if step.Failure != FailureTimeout {
		t.Fatalf("expected timeout failure, got %+v", step)
	}
}

func TestRunPartialResultBindsAndWarns(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"partial": &agentFunc{name: "partial", fn: func(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
			return core.PartialResult(map[string]any{"v": 1}, "stale source data"), nil
		}},
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-partial",
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "partial",
				OutputBindings: map[string]string{"v": "intermediate.v"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if !report.Success {
		t.Fatalf("partial results still capture: %+v", report)
	}
	if report.Intermediate["v"] != 1 {
		t.Fatalf("unexpected intermediate: %+v", report.Intermediate)
	}
	if !report.Log.HasLevel(LevelWarn) {
		t.Fatal("expected WARN entry for agent warning")
	}
}

func TestRunOverwriteLastWriteWins(t *testing.T) {
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o := newTestOrchestrator(t, provider, 0)

	inst := &cacm.Instance{
		ID: "cacm-overwrite",
		Workflow: []cacm.Step{
			{
				StepID:         "s1",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"v": "first"},
				OutputBindings: map[string]string{"v": "intermediate.slot"},
			},
			{
				StepID:         "s2",
				CapabilityRef:  "echo",
				InputBindings:  map[string]any{"v": "second"},
				OutputBindings: map[string]string{"v": "intermediate.slot"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if report.Intermediate["slot"] != "second" {
		t.Fatalf("expected last write to win: %+v", report.Intermediate)
	}
	if !report.Log.HasLevel(LevelWarn) {
		t.Fatal("expected WARN entry for overwrite")
	}
}

func TestRunRecordsStore(t *testing.T) {
	store := NewMemoryRunStore()
	provider := &fakeProvider{agents: map[string]core.Agent{
		"echo": echoAgent("echo"),
	}}
	o, err := New(Config{Agents: provider, Store: store})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	inst := &cacm.Instance{
		ID:       "cacm-store",
		Workflow: []cacm.Step{{StepID: "s1", CapabilityRef: "echo"}},
	}
	report := o.Run(context.Background(), inst)

	records, err := store.List(context.Background(), RecordFilter{RunID: report.RunID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].StepID != "s1" || records[0].CACMID != "cacm-store" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
