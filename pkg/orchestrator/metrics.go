// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opencacm/adk/pkg/telemetry"
)

// runMetrics tracks run and step outcomes with OTEL instruments.
type runMetrics struct {
	runsTotal    metric.Int64Counter
	stepsTotal   metric.Int64Counter
	stepDuration metric.Float64Histogram
}

func newRunMetrics() (*runMetrics, error) {
	meter := otel.Meter("opencacm/orchestrator")

	runsTotal, err := meter.Int64Counter(
		"cacm.runs.total",
		metric.WithDescription("Completed runs by outcome state"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"cacm.steps.total",
		metric.WithDescription("Executed steps by final state"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"cacm.step.duration",
		metric.WithDescription("Step wall time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &runMetrics{
		runsTotal:    runsTotal,
		stepsTotal:   stepsTotal,
		stepDuration: stepDuration,
	}, nil
}

func (m *runMetrics) recordRun(ctx context.Context, cacmID string, state RunState) {
	if m == nil {
		return
	}
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(telemetry.AttrCACMID, cacmID),
		attribute.String(telemetry.AttrRunState, string(state)),
	))
}

func (m *runMetrics) recordStep(ctx context.Context, cacmID string, step *StepReport) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(telemetry.AttrCACMID, cacmID),
		attribute.String(telemetry.AttrStepState, string(step.State)),
		attribute.String(telemetry.AttrStepFailure, string(step.Failure)),
	)
	m.stepsTotal.Add(ctx, 1, attrs)
	if d := step.Duration(); d > 0 {
		m.stepDuration.Record(ctx, d.Seconds(), attrs)
	}
}
