// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opencacm/adk/pkg/binding"
	"github.com/opencacm/adk/pkg/cacm"
	"github.com/opencacm/adk/pkg/core"
	"github.com/opencacm/adk/pkg/errors"
	"github.com/opencacm/adk/pkg/resilience"
	"github.com/opencacm/adk/pkg/telemetry"
)

// Config wires the orchestrator's collaborators. Agents is required; the
// rest default to sensible implementations.
type Config struct {
	Validator   cacm.Validator
	Agents      core.AgentProvider
	Store       RunStore
	Logger      *slog.Logger
	StepTimeout time.Duration
}

// Orchestrator executes workflow instances step by step.
type Orchestrator struct {
	validator   cacm.Validator
	agents      core.AgentProvider
	store       RunStore
	logger      *slog.Logger
	stepTimeout time.Duration
	metrics     *runMetrics
	tracer      trace.Tracer
}

// New creates an Orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Agents == nil {
		return nil, fmt.Errorf("agent provider is required")
	}
	if cfg.Validator == nil {
		cfg.Validator = cacm.NewStructValidator()
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryRunStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	metrics, err := newRunMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return &Orchestrator{
		validator:   cfg.Validator,
		agents:      cfg.Agents,
		store:       cfg.Store,
		logger:      cfg.Logger,
		stepTimeout: cfg.StepTimeout,
		metrics:     metrics,
		tracer:      otel.Tracer("opencacm/orchestrator"),
	}, nil
}

// Run executes the instance and always returns a report. Business failures
// never surface as Go errors: callers read Success, the step reports and
// the execution log.
func (o *Orchestrator) Run(ctx context.Context, inst *cacm.Instance) *Report {
	ctx, runID := core.EnsureRunID(ctx)
	sc := core.NewSharedContext(instanceID(inst))

	log := NewExecutionLog(o.logger.With("run", runID, "cacm", sc.CACMID()))
	report := &Report{
		RunID:     runID,
		SessionID: sc.SessionID(),
		CACMID:    sc.CACMID(),
		State:     StateValidating,
		Outputs:   make(map[string]any),
		Log:       log,
		StartedAt: time.Now(),
	}

	ctx, span := o.tracer.Start(ctx, "Orchestrator.Run",
		trace.WithAttributes(telemetry.RunAttributes(report.CACMID, runID)...))
	defer span.End()

	if issues := o.validator.Validate(inst); len(issues) > 0 {
		for _, issue := range issues {
			log.Error("", "instance validation failed", map[string]any{
				"path":    issue.Path,
				"message": issue.Message,
			})
		}
		o.finish(ctx, report, span, StateDoneFailed)
		return report
	}
	log.Info("", "instance validated", map[string]any{"steps": len(inst.Workflow)})

	for name, def := range inst.Inputs {
		sc.SetGlobalParameter(name, def.Value)
	}

	resolver := binding.NewResolver(inst.InputScope())
	report.State = StateExecuting
	report.Steps = make([]StepReport, len(inst.Workflow))
	for i, step := range inst.Workflow {
		report.Steps[i] = StepReport{
			StepID:        step.StepID,
			CapabilityRef: step.CapabilityRef,
			State:         StepPending,
		}
	}

	stopped := false
	anyFailed := false
	for i := range inst.Workflow {
		step := &inst.Workflow[i]
		sr := &report.Steps[i]
		if stopped {
			continue
		}

		o.runStep(ctx, step, sr, resolver, sc, log)
		o.persistStep(ctx, report, sr)

		if sr.State == StepFailed {
			anyFailed = true
			if step.Required {
				log.Error(step.StepID, "required step failed; stopping run", nil)
				stopped = true
			}
		}
	}

	report.Outputs = resolver.Outputs
	report.Intermediate = resolver.Intermediate

	state := StateDoneSuccess
	switch {
	case stopped:
		state = StateDoneFailed
	case anyFailed:
		state = StateDonePartialFailure
	}
	o.finish(ctx, report, span, state)
	return report
}

// runStep drives one step through resolve, dispatch and capture.
func (o *Orchestrator) runStep(ctx context.Context, step *cacm.Step, sr *StepReport, resolver *binding.Resolver, sc *core.SharedContext, log *ExecutionLog) {
	sr.StartedAt = time.Now()
	defer func() { sr.FinishedAt = time.Now() }()

	sr.State = StepResolvingInputs
	inputs := make(map[string]any, len(step.InputBindings))
	unresolvedCount := 0
	for name, raw := range step.InputBindings {
		value, err := resolver.Resolve(raw)
		if err != nil {
			unresolvedCount++
			inputs[name] = unresolvedSentinel(raw)
			log.Warn(step.StepID, "input binding did not resolve", map[string]any{
				"binding":   name,
				"reference": fmt.Sprintf("%v", raw),
				"error":     err.Error(),
			})
			continue
		}
		inputs[name] = value
	}
	sr.Inputs = inputs

	if unresolvedCount > 0 {
		sr.State = StepFailed
		sr.Failure = FailureUnresolvedBinding
		sr.Error = fmt.Sprintf("%d input binding(s) did not resolve", unresolvedCount)
		log.Error(step.StepID, "step failed before dispatch", map[string]any{
			"unresolved": unresolvedCount,
		})
		return
	}

	agent, err := o.agents.GetOrCreate(ctx, step.CapabilityRef)
	if err != nil {
		sr.State = StepFailed
		sr.Error = err.Error()
		if errors.IsCode(err, errors.CodeCapabilityNotFound) {
			sr.Failure = FailureCapabilityNotFound
		} else {
			sr.Failure = FailureAgentConstruction
		}
		log.Error(step.StepID, "agent unavailable", map[string]any{
			"capability": step.CapabilityRef,
			"error":      err.Error(),
		})
		return
	}

	sr.State = StepDispatched
	log.Info(step.StepID, "dispatching agent", map[string]any{
		"capability": step.CapabilityRef,
		"agent":      agent.Name(),
	})

	stepCtx, stepSpan := o.tracer.Start(ctx, "Orchestrator.Step",
		trace.WithAttributes(telemetry.StepAttributes(step.StepID, step.CapabilityRef)...))
	result, err := resilience.WithTimeoutResult(stepCtx, resilience.TimeoutConfig{Duration: o.stepTimeout},
		func(ctx context.Context) (*core.AgentResult, error) {
			return agent.Run(ctx, step.Description, inputs, sc)
		})
	stepSpan.End()

	if err != nil {
		sr.State = StepFailed
		sr.Error = err.Error()
		if errors.IsCode(err, errors.CodeTimeout) {
			sr.Failure = FailureTimeout
		} else {
			sr.Failure = FailureExecution
		}
		log.Error(step.StepID, "agent invocation failed", map[string]any{"error": err.Error()})
		return
	}
	if result == nil || result.Status == core.StatusError {
		sr.State = StepFailed
		sr.Failure = FailureExecution
		if result != nil {
			sr.Error = result.Message
		} else {
			sr.Error = "agent returned no result"
		}
		log.Error(step.StepID, "agent reported failure", map[string]any{"message": sr.Error})
		return
	}

	if result.Status == core.StatusPartial {
		for _, warning := range result.Warnings {
			log.Warn(step.StepID, "agent warning", map[string]any{"warning": warning})
		}
	}

	o.captureOutputs(step, result, resolver, log)
	sc.SetData("step:"+step.StepID, result.Payload)
	sr.State = StepCaptured
	log.Info(step.StepID, "outputs captured", map[string]any{"bindings": len(step.OutputBindings)})
}

// captureOutputs writes result payload fields through the binding resolver.
// A missing payload field or an overwrite is a warning, not a failure.
func (o *Orchestrator) captureOutputs(step *cacm.Step, result *core.AgentResult, resolver *binding.Resolver, log *ExecutionLog) {
	for field, target := range step.OutputBindings {
		value, ok := result.Field(field)
		if !ok {
			log.Warn(step.StepID, "result payload missing bound field", map[string]any{
				"field":  field,
				"target": target,
			})
			continue
		}
		overwrote, err := resolver.Bind(target, value)
		if err != nil {
			log.Warn(step.StepID, "output binding rejected", map[string]any{
				"target": target,
				"error":  err.Error(),
			})
			continue
		}
		if overwrote {
			log.Warn(step.StepID, "overwriting previously bound value", map[string]any{
				"target": target,
			})
		}
	}
}

func (o *Orchestrator) persistStep(ctx context.Context, report *Report, sr *StepReport) {
	status := string(sr.State)
	if sr.Failure != FailureNone {
		status = string(sr.Failure)
	}
	rec := StepRecord{
		RunID:      report.RunID,
		CACMID:     report.CACMID,
		StepID:     sr.StepID,
		Capability: sr.CapabilityRef,
		Status:     status,
		Error:      sr.Error,
		Payload:    sr.Inputs,
		StartedAt:  sr.StartedAt,
		FinishedAt: sr.FinishedAt,
	}
	if err := o.store.Record(ctx, rec); err != nil {
		o.logger.Warn("step record not persisted", "step", sr.StepID, "error", err)
	}
	o.metrics.recordStep(ctx, report.CACMID, sr)
}

func (o *Orchestrator) finish(ctx context.Context, report *Report, span trace.Span, state RunState) {
	report.State = state
	report.Success = state == StateDoneSuccess
	report.FinishedAt = time.Now()
	span.SetAttributes(
		attribute.Bool(telemetry.AttrRunSuccess, report.Success),
		attribute.String(telemetry.AttrRunState, string(state)),
	)
	o.metrics.recordRun(ctx, report.CACMID, state)
	report.Log.Info("", "run finished", map[string]any{
		"state":    string(state),
		"success":  report.Success,
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	})
}

// unresolvedSentinel marks a missing value in a step input snapshot.
func unresolvedSentinel(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return binding.Unresolved{}
	}
	ref, ok := binding.Parse(s)
	if !ok {
		return binding.Unresolved{Ref: s}
	}
	return binding.Unresolved{Ref: ref.String()}
}

func instanceID(inst *cacm.Instance) string {
	if inst == nil {
		return ""
	}
	return inst.ID
}
