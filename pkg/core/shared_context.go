// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SharedContext is the per-run mutable state container. It is created once
// at run start, passed by reference to every agent invocation, and discarded
// or persisted by the caller at run end. Steps execute sequentially, but a
// delegated peer shares the same instance within a call tree, so access is
// guarded. SetData is last-writer-wins.
type SharedContext struct {
	sessionID string
	cacmID    string

	mu                 sync.RWMutex
	documentReferences map[string]string
	globalParameters   map[string]any
	data               map[string]any
}

// NewSharedContext creates a shared context for one run with a generated
// session id.
func NewSharedContext(cacmID string) *SharedContext {
	return &SharedContext{
		sessionID:          uuid.NewString(),
		cacmID:             cacmID,
		documentReferences: make(map[string]string),
		globalParameters:   make(map[string]any),
		data:               make(map[string]any),
	}
}

// SessionID returns the run's session identifier.
func (s *SharedContext) SessionID() string { return s.sessionID }

// CACMID returns the workflow instance id this context belongs to.
func (s *SharedContext) CACMID() string { return s.cacmID }

// SetData stores a value in the free-form data store.
func (s *SharedContext) SetData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// GetData returns the value for key, or def when absent.
func (s *SharedContext) GetData(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// AddDocumentReference records a document URI under a document type key.
// Keys are unique; a second write for the same type replaces the first.
func (s *SharedContext) AddDocumentReference(docType, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentReferences[docType] = uri
}

// GetDocumentReference returns the URI registered for a document type.
func (s *SharedContext) GetDocumentReference(docType string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri, ok := s.documentReferences[docType]
	return uri, ok
}

// SetGlobalParameter stores a run-wide parameter. Write-once-read-many by
// convention; not enforced.
func (s *SharedContext) SetGlobalParameter(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalParameters[key] = value
}

// GetGlobalParameter returns a run-wide parameter.
func (s *SharedContext) GetGlobalParameter(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.globalParameters[key]
	return v, ok
}

// DataKeys returns the keys currently present in the data store.
func (s *SharedContext) DataKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Summarize returns a diagnostic one-liner describing the context contents.
func (s *SharedContext) Summarize() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("session=%s cacm=%s documents=%d globals=%d data_keys=%d",
		s.sessionID, s.cacmID, len(s.documentReferences), len(s.globalParameters), len(s.data))
}
