// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opencacm/adk/pkg/errors"
)

// ErrorMetrics tracks error rates and recovery patterns across engine
// components. All methods are nil-safe so callers can leave it unset.
type ErrorMetrics struct {
	errorCounter    metric.Int64Counter
	recoveryCounter metric.Int64Counter

	// breakerStateGauge tracks circuit breaker state per component
	// (0=open, 1=half-open, 2=closed).
	breakerStateGauge metric.Int64Gauge
}

// NewErrorMetrics creates the error instruments on the global meter.
func NewErrorMetrics() (*ErrorMetrics, error) {
	meter := otel.Meter("opencacm/errors")

	errorCounter, err := meter.Int64Counter(
		"cacm.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	recoveryCounter, err := meter.Int64Counter(
		"cacm.errors.recovered",
		metric.WithDescription("Successful error recoveries by code"),
	)
	if err != nil {
		return nil, err
	}

	breakerStateGauge, err := meter.Int64Gauge(
		"cacm.circuitbreaker.state",
		metric.WithDescription("Circuit breaker state per component (0=open, 1=half-open, 2=closed)"),
	)
	if err != nil {
		return nil, err
	}

	return &ErrorMetrics{
		errorCounter:      errorCounter,
		recoveryCounter:   recoveryCounter,
		breakerStateGauge: breakerStateGauge,
	}, nil
}

// RecordError counts one error occurrence for the component. The error code
// and recoverability come from the engine taxonomy when available.
func (em *ErrorMetrics) RecordError(ctx context.Context, err error, component string) {
	if em == nil || err == nil {
		return
	}
	attrs := append(ErrorAttributes(err), attribute.String("component", component))
	em.errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRecovery counts one successful recovery (a retry that succeeded or a
// breaker that closed again) for the given code.
func (em *ErrorMetrics) RecordRecovery(ctx context.Context, code errors.ErrorCode) {
	if em == nil {
		return
	}
	em.recoveryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, string(code)),
	))
}

// RecordBreakerState records the circuit breaker state for a component.
func (em *ErrorMetrics) RecordBreakerState(ctx context.Context, component string, state int64) {
	if em == nil {
		return
	}
	em.breakerStateGauge.Record(ctx, state, metric.WithAttributes(
		attribute.String("component", component),
	))
}
