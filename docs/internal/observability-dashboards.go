// SPDX-License-Identifier: Apache-2.0
// CACM Engine Observability Dashboards
// This file documents dashboard templates for OpenTelemetry OTEL UI or Grafana.
//
// DASHBOARD: Run & Step Outcomes
//   Shows workflow throughput and failure distribution.
//
//   Queries:
//   - cacm.runs.total{cacm.run.state} (rate 5m)
//     Metric: Runs by terminal state
//     Display: Stacked area chart (done_success, done_partial_failure, done_failed)
//     Alert Threshold: done_failed > 10% of runs over 10m
//
//   - cacm.steps.total{cacm.step.state, cacm.step.failure} (rate 5m)
//     Metric: Step outcomes, failures broken down by kind
//     Display: Line chart with legend (captured, failed/execution, failed/timeout,
//     failed/unresolved_binding, failed/capability_not_found, failed/agent_construction)
//
//   - cacm.step.duration{cacm.capability} (histogram)
//     Metric: Step latency per capability
//     Display: Heatmap, p50/p95/p99 overlays
//     Insight: Which capabilities dominate run wall time?
//
// DASHBOARD: Error Rate & Recovery
//   Shows error trends over time with breakdown by error code and component.
//
//   Queries:
//   - cacm.errors.total{error.code} (rate 5m)
//     Metric: Error rate by error code
//     Display: Line chart with legend (SKILL_FAILURE, TIMEOUT, UNRESOLVED_BINDING,
//     AGENT_EXECUTION, etc)
//     Alert Threshold: > 10 errors/min for CodeInternal
//
//   - cacm.errors.recovered{error.code} (rate 5m)
//     Metric: Recovery rate by error code
//     Display: Stacked area chart
//     Goal: errors.recovered / errors.total > 80% (recovery rate)
//
//   - cacm.circuitbreaker.state{component}
//     Metric: Circuit breaker state (0=open, 1=half-open, 2=closed)
//     Display: Status panels per component
//     Meaning:
//       OPEN (0): Circuit is broken, requests rejected
//       HALF_OPEN (1): Testing recovery, allowing limited requests
//       CLOSED (2): Normal operation, requests flowing
//
// DASHBOARD: Error Details
//   Deep dive into specific error patterns.
//
//   Queries:
//   - cacm.errors.total by (error.code, component, error.recoverable)
//     Breakdown: Error code × component × recoverability
//     Display: Heatmap or table
//     Insight: Which skill plugins produce non-recoverable errors?
//
//   - cacm.errors.total{error.code="TIMEOUT"} vs cacm.circuitbreaker.state
//     Correlation: Timeouts vs circuit breaker trips
//     Display: Dual axis line chart
//
// ALERT RULES (Prometheus/AlertManager format):
//
// Alert 1: High Run Failure Rate
//   Name: CACMHighRunFailureRate
//   Condition: rate(cacm.runs.total{cacm.run.state="done_failed"}[5m]) /
//              rate(cacm.runs.total[5m]) > 0.1
//   Duration: 5m
//   Severity: critical
//   Message: "CACM run failure rate {{ $value }}, threshold 10%"
//   Action: Check validator issues and catalog health in service logs
//
// Alert 2: High Error Rate
//   Name: CACMHighErrorRate
//   Condition: rate(cacm.errors.total[5m]) > 10
//   Duration: 2m
//   Severity: critical
//   Message: "CACM error rate {{ $value }} errors/sec, threshold 10"
//   Action: Page on-call engineer, check service logs
//
// Alert 3: Circuit Breaker Open
//   Name: CACMCircuitBreakerOpen
//   Condition: cacm.circuitbreaker.state{component=~".*"} == 0
//   Duration: 1m
//   Severity: critical
//   Message: "Circuit breaker OPEN on {{ $labels.component }}"
//   Action: Investigate the backing skill service, check dependencies
//
// Alert 4: Non-Recoverable Errors
//   Name: CACMNonRecoverableErrors
//   Condition: rate(cacm.errors.total{error.recoverable="false"}[5m]) > 1
//   Duration: 2m
//   Severity: critical
//   Message: "{{ $value }} non-recoverable errors/sec"
//   Action: Check for instance-document or configuration issues
//
// Alert 5: Step Latency Regression
//   Name: CACMStepLatencyP95
//   Condition: histogram_quantile(0.95, rate(cacm.step.duration[5m])) > 30
//   Duration: 5m
//   Severity: warning
//   Message: "Step p95 latency {{ $value }}s on {{ $labels.cacm_capability }}"
//   Action: Inspect the capability's skill backend
//
// OTEL QUERY EXAMPLES for OTEL UI or Grafana:
//
// 1. Error Rate by Code (5-minute)
//    PromQL: rate(cacm.errors.total{error.code=~".+"}[5m]) group by (error.code)
//
// 2. Recovery Success Percentage
//    PromQL: (rate(cacm.errors.recovered[5m]) / rate(cacm.errors.total[5m])) * 100
//    Display: Single stat, goal >= 80%
//
// 3. Top Skill Plugins by Error Count
//    PromQL: topk(5, sum(rate(cacm.errors.total[5m])) by (component))
//    Display: Bar chart
//
// 4. Partial Failure Trend (24h)
//    PromQL: rate(cacm.runs.total{cacm.run.state="done_partial_failure"}[5m])
//    Range: 24h
//    Display: Area chart
//
// 5. Circuit Breaker State Changes
//    PromQL: rate(changes(cacm.circuitbreaker.state[5m])[1h:5m]) by (component)
//    Display: Line chart, shows how often circuit breakers flip
//
// INTEGRATION PATTERNS:
//
// 1. Error Tracking:
//    - Skill registry records every failed invocation via
//      ErrorMetrics.RecordError(ctx, err, "skills/<plugin>")
//    - On retry success: RecordRecovery(ctx, errorCode)
//    - Dashboard shows: errors vs recoveries ratio
//
// 2. Trace Correlation:
//    - Every run emits an Orchestrator.Run span, every step an
//      Orchestrator.Step span with cacm.id / cacm.run.id / cacm.step.id
//    - slog lines carry trace_id and span_id for log-to-trace pivoting
//
// 3. SLO Tracking:
//    - Run success SLO: done_success / total > 99%
//    - Recovery rate SLO: recovered/errors > 80%
//
package internal

// This file is documentation only and is not compiled.
// See pkg/telemetry/metrics.go and pkg/orchestrator/metrics.go for implementation.
