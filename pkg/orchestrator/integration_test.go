package orchestrator

import (
	"context"
	"log/slog"
	"testing"

	"github.com/opencacm/adk/pkg/agents"
	"github.com/opencacm/adk/pkg/cacm"
	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/skills"
)

// End-to-end wiring: catalog → manager → skill registry → orchestrator.
func TestRunWithManagerAndSkills(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register("financials", skills.NewFuncPlugin().
		RegisterFunc("compute_ratios", func(ctx context.Context, args map[string]any) (any, error) {
			company, _ := args["company"].(string)
			return map[string]any{
				"company":      company,
				"currentRatio": 1.8,
			}, nil
		}).
		RegisterFunc("summarize", func(ctx context.Context, args map[string]any) (any, error) {
			return "all ratios nominal", nil
		}))

	cat := catalog.FromDescriptors([]catalog.Descriptor{
		{
			ID:           "urn:cap:ratio_analysis",
			AgentType:    "skill",
			DefaultSkill: &catalog.SkillRef{Plugin: "financials", Function: "compute_ratios"},
		},
		{
			ID:           "urn:cap:report",
			AgentType:    "skill",
			DefaultSkill: &catalog.SkillRef{Plugin: "financials", Function: "summarize"},
			Outputs:      []catalog.PortDef{{Name: "text", Type: "string"}},
		},
	}, slog.Default())

	manager := agents.NewManager(cat, registry, slog.Default())
	o, err := New(Config{Agents: manager})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	inst := &cacm.Instance{
		ID: "cacm-ratio-report",
		Inputs: map[string]cacm.InputDef{
			"companyName": {Value: "ACME Corp", Type: "string"},
		},
		Outputs: map[string]cacm.OutputDef{
			"summary": {Type: "string"},
			"ratios":  {Type: "object"},
		},
		Workflow: []cacm.Step{
			{
				StepID:        "compute",
				CapabilityRef: "urn:cap:ratio_analysis",
				InputBindings: map[string]any{"company": "cacm.inputs.companyName"},
				OutputBindings: map[string]string{
					"currentRatio": "intermediate.currentRatio",
					"company":      "cacm.outputs.ratios",
				},
			},
			{
				StepID:         "report",
				CapabilityRef:  "urn:cap:report",
				InputBindings:  map[string]any{"ratio": "intermediate.currentRatio"},
				OutputBindings: map[string]string{"text": "cacm.outputs.summary"},
			},
		},
	}

	report := o.Run(context.Background(), inst)
	if !report.Success {
		t.Fatalf("expected success: %+v", report.Steps)
	}
	if report.Outputs["summary"] != "all ratios nominal" {
		t.Fatalf("unexpected summary: %+v", report.Outputs)
	}
	if report.Outputs["ratios"] != "ACME Corp" {
		t.Fatalf("input did not flow through: %+v", report.Outputs)
	}
	if report.Intermediate["currentRatio"] != 1.8 {
		t.Fatalf("unexpected intermediate: %+v", report.Intermediate)
	}
	// Second run reuses cached agents.
	if !manager.Cached("urn:cap:ratio_analysis") {
		t.Fatal("expected agent to be cached")
	}
}
