package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
capabilities:
  - id: urn:adk:capability:ratio_analysis
    agentType: skill
    description: Computes core financial ratios.
    defaultSkill:
      plugin: financials
      function: compute_ratios
    inputs:
      - name: financialData
        type: object
    outputs:
      - name: ratios
        type: object
  - id: urn:adk:capability:echo
    agentType: echo
`

func TestParseYAML(t *testing.T) {
	descs, err := ParseYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	if descs[0].DefaultSkill == nil || descs[0].DefaultSkill.Plugin != "financials" {
		t.Fatalf("unexpected default skill: %+v", descs[0].DefaultSkill)
	}
}

func TestParseJSON(t *testing.T) {
	payload := []byte(`{"capabilities":[{"id":"urn:adk:capability:echo","agentType":"echo"}]}`)
	descs, err := ParseJSON(payload)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(descs) != 1 || descs[0].AgentType != "echo" {
		t.Fatalf("unexpected descriptors: %+v", descs)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cat := Load(path, slog.Default())
	if cat.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cat.Len())
	}
	d, ok := cat.Lookup("urn:adk:capability:ratio_analysis")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if d.AgentType != "skill" {
		t.Fatalf("unexpected agent type: %q", d.AgentType)
	}
	if _, ok := cat.Lookup("urn:adk:capability:nope"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	cat := Load("/does/not/exist.yaml", slog.Default())
	if cat.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d entries", cat.Len())
	}
	// An empty catalog is still usable.
	if _, ok := cat.Lookup("anything"); ok {
		t.Fatal("expected miss on empty catalog")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("capabilities: [unclosed"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if cat := Load(path, slog.Default()); cat.Len() != 0 {
		t.Fatal("malformed catalog must degrade to empty")
	}
}

func TestDuplicateIDsLastWins(t *testing.T) {
	descs := []Descriptor{
		{ID: "dup", AgentType: "echo"},
		{ID: "dup", AgentType: "skill"},
		{ID: "", AgentType: "ignored"},
	}
	cat := FromDescriptors(descs, slog.Default())
	if cat.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cat.Len())
	}
	d, _ := cat.Lookup("dup")
	if d.AgentType != "skill" {
		t.Fatalf("expected last entry to win, got %q", d.AgentType)
	}
}

func TestIDsSorted(t *testing.T) {
	cat := FromDescriptors([]Descriptor{{ID: "b"}, {ID: "a"}, {ID: "c"}}, slog.Default())
	ids := cat.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected order: %v", ids)
	}
}
