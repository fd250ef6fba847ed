// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/opencacm/adk/pkg/errors"
)

// Semantic conventions for engine telemetry. Span and metric producers
// share these keys so runs can be correlated across signals.
const (
	// Run attributes
	AttrCACMID     = "cacm.id"
	AttrRunID      = "cacm.run.id"
	AttrRunState   = "cacm.run.state"
	AttrRunSuccess = "cacm.run.success"
	AttrSessionID  = "cacm.session.id"

	// Step attributes
	AttrStepID      = "cacm.step.id"
	AttrStepState   = "cacm.step.state"
	AttrStepFailure = "cacm.step.failure"
	AttrCapability  = "cacm.capability"

	// Skill attributes
	AttrSkillPlugin   = "cacm.skill.plugin"
	AttrSkillFunction = "cacm.skill.function"

	// LLM attributes (standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"

	// Error attributes
	AttrErrorCode        = "error.code"
	AttrErrorRecoverable = "error.recoverable"
)

// RunAttributes returns the identifying attributes for a run span.
func RunAttributes(cacmID, runID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCACMID, cacmID),
		attribute.String(AttrRunID, runID),
	}
}

// StepAttributes returns the identifying attributes for a step span.
func StepAttributes(stepID, capabilityRef string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStepID, stepID),
		attribute.String(AttrCapability, capabilityRef),
	}
}

// SkillAttributes returns attributes for a skill invocation.
func SkillAttributes(plugin, function string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrSkillPlugin, plugin),
	}
	if function != "" {
		attrs = append(attrs, attribute.String(AttrSkillFunction, function))
	}
	return attrs
}

// LLMUsageAttributes returns token usage attributes for a provider call.
// Zero counts are omitted.
func LLMUsageAttributes(model string, inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	return attrs
}

// ErrorAttributes maps an error to code and recoverability attributes.
// Errors outside the engine taxonomy report code "UNKNOWN".
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	if ee := errors.AsEngineError(err); ee != nil {
		return []attribute.KeyValue{
			attribute.String(AttrErrorCode, string(ee.Code)),
			attribute.String(AttrErrorRecoverable, strconv.FormatBool(ee.Recoverable)),
		}
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorCode, "UNKNOWN"),
		attribute.String(AttrErrorRecoverable, "unknown"),
	}
}
