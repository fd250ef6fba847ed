// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"log/slog"
	"sync"
	"time"
)

// LogLevel classifies execution log entries.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// LogEntry is one ordered entry of the execution log.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   LogLevel       `json:"level"`
	StepID  string         `json:"stepId,omitempty"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// ExecutionLog accumulates the run's narrative, mirrored to slog so
// operators see the same entries live.
type ExecutionLog struct {
	mu      sync.Mutex
	logger  *slog.Logger
	entries []LogEntry
}

// NewExecutionLog creates an execution log mirroring to logger.
func NewExecutionLog(logger *slog.Logger) *ExecutionLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecutionLog{logger: logger}
}

// Info records an informational entry.
func (l *ExecutionLog) Info(stepID, message string, fields map[string]any) {
	l.append(LevelInfo, stepID, message, fields)
}

// Warn records a warning entry.
func (l *ExecutionLog) Warn(stepID, message string, fields map[string]any) {
	l.append(LevelWarn, stepID, message, fields)
}

// Error records an error entry.
func (l *ExecutionLog) Error(stepID, message string, fields map[string]any) {
	l.append(LevelError, stepID, message, fields)
}

func (l *ExecutionLog) append(level LogLevel, stepID, message string, fields map[string]any) {
	entry := LogEntry{
		Time:    time.Now(),
		Level:   level,
		StepID:  stepID,
		Message: message,
		Fields:  fields,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	attrs := make([]any, 0, 2+2*len(fields))
	if stepID != "" {
		attrs = append(attrs, "step", stepID)
	}
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	switch level {
	case LevelWarn:
		l.logger.Warn(message, attrs...)
	case LevelError:
		l.logger.Error(message, attrs...)
	default:
		l.logger.Info(message, attrs...)
	}
}

// Entries returns a copy of the recorded entries in order.
func (l *ExecutionLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasLevel reports whether any entry carries the given level.
func (l *ExecutionLog) HasLevel(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Level == level {
			return true
		}
	}
	return false
}
