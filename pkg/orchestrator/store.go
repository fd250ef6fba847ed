// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// StepRecord is the persisted trace of one step execution.
type StepRecord struct {
	RunID      string
	CACMID     string
	StepID     string
	Capability string
	Status     string
	Error      string
	Payload    map[string]any
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordFilter limits step record queries.
type RecordFilter struct {
	RunID  string
	CACMID string
	StepID string
	Status string
	Limit  int
}

// RunStore persists step records for post-run inspection.
type RunStore interface {
	Record(ctx context.Context, rec StepRecord) error
	List(ctx context.Context, filter RecordFilter) ([]StepRecord, error)
}

// MemoryRunStore keeps step records in memory. It is the default store.
type MemoryRunStore struct {
	mu      sync.Mutex
	records []StepRecord
}

// NewMemoryRunStore returns an in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

// Record appends a step record.
func (s *MemoryRunStore) Record(_ context.Context, rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// List returns filtered step records in insertion order.
func (s *MemoryRunStore) List(_ context.Context, filter RecordFilter) ([]StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StepRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.RunID != "" && rec.RunID != filter.RunID {
			continue
		}
		if filter.CACMID != "" && rec.CACMID != filter.CACMID {
			continue
		}
		if filter.StepID != "" && rec.StepID != filter.StepID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func encodeRecordPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}

func decodeRecordPayload(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
