package cacm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleInstance = `
cacmId: cacm-ratio-demo
name: Ratio demo
inputs:
  companyName:
    value: ACME Corp
    type: string
  catalystParams:
    value:
      clientId: ACME
    type: object
outputs:
  summary:
    type: string
workflow:
  - stepId: s1
    description: Compute ratios
    computeCapabilityRef: urn:adk:capability:ratio_analysis
    inputBindings:
      company: cacm.inputs.companyName
    outputBindings:
      ratios: intermediate.ratios
  - stepId: s2
    computeCapabilityRef: urn:adk:capability:report
    inputBindings:
      ratios: intermediate.ratios
    outputBindings:
      text: cacm.outputs.summary
`

func TestParseYAMLInstance(t *testing.T) {
	inst, err := ParseYAML([]byte(sampleInstance))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if inst.ID != "cacm-ratio-demo" {
		t.Fatalf("unexpected id: %q", inst.ID)
	}
	if len(inst.Workflow) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(inst.Workflow))
	}
	if inst.Workflow[0].CapabilityRef != "urn:adk:capability:ratio_analysis" {
		t.Fatalf("unexpected capability ref: %q", inst.Workflow[0].CapabilityRef)
	}
	if inst.Workflow[1].OutputBindings["text"] != "cacm.outputs.summary" {
		t.Fatalf("unexpected output binding: %+v", inst.Workflow[1].OutputBindings)
	}
}

func TestLoadInstanceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instance.yaml")
	if err := os.WriteFile(path, []byte(sampleInstance), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	inst, err := LoadInstance(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if inst.Name != "Ratio demo" {
		t.Fatalf("unexpected name: %q", inst.Name)
	}

	if _, err := LoadInstance(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInputScope(t *testing.T) {
	inst, err := ParseYAML([]byte(sampleInstance))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	scope := inst.InputScope()
	entry, ok := scope["companyName"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected scope entry: %T", scope["companyName"])
	}
	if entry["value"] != "ACME Corp" {
		t.Fatalf("unexpected value: %v", entry["value"])
	}
}

func TestValidateOK(t *testing.T) {
	inst, err := ParseYAML([]byte(sampleInstance))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if issues := NewStructValidator().Validate(inst); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateFindings(t *testing.T) {
	inst := &Instance{
		Workflow: []Step{
			{StepID: "", CapabilityRef: ""},
			{StepID: "dup", CapabilityRef: "cap"},
			{StepID: "dup", CapabilityRef: "cap",
				InputBindings:  map[string]any{"x": "cacm.inputs.nope"},
				OutputBindings: map[string]string{"y": "cacm.outputs.undeclared"},
			},
			{StepID: "s4", CapabilityRef: "cap",
				OutputBindings: map[string]string{"y": "notANamespace"},
			},
			{StepID: "s5", CapabilityRef: "cap",
				OutputBindings: map[string]string{"y": "cacm.inputs.x"},
			},
		},
	}

	issues := NewStructValidator().Validate(inst)
	if len(issues) == 0 {
		t.Fatal("expected issues")
	}

	wantPaths := []string{
		"cacmId",
		"workflow[0].stepId",
		"workflow[0].computeCapabilityRef",
		"workflow[2].stepId",
		"workflow[2].inputBindings.x",
		"workflow[2].outputBindings.y",
		"workflow[3].outputBindings.y",
		"workflow[4].outputBindings.y",
	}
	for _, want := range wantPaths {
		found := false
		for _, issue := range issues {
			if issue.Path == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing issue for path %q in %+v", want, issues)
		}
	}

	// Issues keep document order: cacmId before workflow findings.
	if issues[0].Path != "cacmId" {
		t.Fatalf("expected cacmId first, got %q", issues[0].Path)
	}
}

func TestValidateIssueOrderStable(t *testing.T) {
	inst := &Instance{
		ID: "cacm-order",
		Workflow: []Step{
			{StepID: "s1", CapabilityRef: "cap",
				InputBindings: map[string]any{
					"zeta":  "cacm.inputs.nope",
					"alpha": "cacm.inputs.alsoNope",
				},
				OutputBindings: map[string]string{
					"second": "cacm.outputs.undeclared",
					"first":  "cacm.inputs.forbidden",
				},
			},
		},
	}

	want := []string{
		"workflow[0].inputBindings.alpha",
		"workflow[0].inputBindings.zeta",
		"workflow[0].outputBindings.first",
		"workflow[0].outputBindings.second",
	}
	v := NewStructValidator()
	for run := 0; run < 5; run++ {
		issues := v.Validate(inst)
		if len(issues) != len(want) {
			t.Fatalf("expected %d issues, got %+v", len(want), issues)
		}
		for i, path := range want {
			if issues[i].Path != path {
				t.Fatalf("run %d: issue %d at %q, want %q", run, i, issues[i].Path, path)
			}
		}
	}
}

func TestValidateNilAndEmpty(t *testing.T) {
	v := NewStructValidator()
	if issues := v.Validate(nil); len(issues) != 1 {
		t.Fatalf("expected single issue for nil instance, got %+v", issues)
	}
	issues := v.Validate(&Instance{ID: "x"})
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "at least one step") {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}
