package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteRunStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	records := []StepRecord{
		{
			RunID:      "run-1",
			CACMID:     "cacm-a",
			StepID:     "s1",
			Capability: "echo",
			Status:     "captured",
			Payload:    map[string]any{"v": "hello"},
			StartedAt:  now,
			FinishedAt: now.Add(time.Second),
		},
		{
			RunID:      "run-1",
			CACMID:     "cacm-a",
			StepID:     "s2",
			Capability: "echo",
			Status:     "execution",
			Error:      "backend unavailable",
			StartedAt:  now.Add(2 * time.Second),
		},
		{
			RunID:      "run-2",
			CACMID:     "cacm-b",
			StepID:     "s1",
			Capability: "ratios",
			Status:     "captured",
			StartedAt:  now.Add(3 * time.Second),
		},
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := store.List(ctx, RecordFilter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].StepID != "s1" || got[1].StepID != "s2" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Payload["v"] != "hello" {
		t.Fatalf("payload not preserved: %+v", got[0].Payload)
	}
	if got[1].Error != "backend unavailable" {
		t.Fatalf("error text not preserved: %+v", got[1])
	}

	byStatus, err := store.List(ctx, RecordFilter{Status: "captured"})
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Fatalf("expected 2 captured records, got %d", len(byStatus))
	}

	limited, err := store.List(ctx, RecordFilter{Limit: 1})
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 record, got %d", len(limited))
	}
}

func TestMemoryRunStoreFilters(t *testing.T) {
	store := NewMemoryRunStore()
	ctx := context.Background()

	_ = store.Record(ctx, StepRecord{RunID: "r1", StepID: "a", Status: "captured"})
	_ = store.Record(ctx, StepRecord{RunID: "r1", StepID: "b", Status: "failed"})
	_ = store.Record(ctx, StepRecord{RunID: "r2", StepID: "a", Status: "captured"})

	got, _ := store.List(ctx, RecordFilter{RunID: "r1", Status: "captured"})
	if len(got) != 1 || got[0].StepID != "a" {
		t.Fatalf("unexpected records: %+v", got)
	}
}
