// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling with rich context for the
// orchestration engine. Step-local failures carry a code so callers can
// distinguish a missing capability from an unresolved binding without
// string matching.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies engine errors for logging, metrics, and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeValidation indicates the workflow instance failed validation.
	// Fatal: no step runs after a validation failure.
	CodeValidation ErrorCode = "VALIDATION_FAILED"

	// CodeCatalogLoad indicates the capability catalog could not be read.
	// Non-fatal: the loader degrades to an empty catalog.
	CodeCatalogLoad ErrorCode = "CATALOG_LOAD_FAILED"

	// CodeCapabilityNotFound indicates a step referenced an unknown capability.
	CodeCapabilityNotFound ErrorCode = "CAPABILITY_NOT_FOUND"

	// CodeAgentConstruction indicates an agent factory failed.
	CodeAgentConstruction ErrorCode = "AGENT_CONSTRUCTION_FAILED"

	// CodeUnresolvedBinding indicates a reference did not resolve to a value.
	CodeUnresolvedBinding ErrorCode = "UNRESOLVED_BINDING"

	// CodeAgentExecution indicates an agent invocation failed.
	CodeAgentExecution ErrorCode = "AGENT_EXECUTION_FAILED"

	// CodeDelegationDepth indicates the peer-delegation depth bound was hit.
	CodeDelegationDepth ErrorCode = "DELEGATION_DEPTH_EXCEEDED"

	// CodeSkillFailure indicates a skill/plugin invocation failed.
	CodeSkillFailure ErrorCode = "SKILL_FAILURE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// EngineError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type EngineError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *EngineError) MarshalJSON() ([]byte, error) {
	type Alias EngineError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new EngineError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *EngineError) WithAttribute(key, value string) *EngineError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *EngineError) WithRecoverable(recoverable bool) *EngineError {
	e.Recoverable = recoverable
	return e
}

// AsEngineError attempts to convert an error to an EngineError.
// Returns the error as EngineError if it is one, or wraps it otherwise.
func AsEngineError(err error) *EngineError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EngineError); ok {
		return ee
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the error code of err, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ee, ok := err.(*EngineError); ok {
		return ee.Code
	}
	return CodeInternal
}

// IsCode reports whether err is an EngineError with the given code.
func IsCode(err error, code ErrorCode) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Code == code
}
