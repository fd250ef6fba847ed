package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opencacm/adk/pkg/errors"
	"github.com/opencacm/adk/pkg/llm"
	"github.com/opencacm/adk/pkg/resilience"
)

func writeSkill(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o600); err != nil {
		t.Fatalf("write SKILL.md: %v", err)
	}
}

const summarizeSkill = `---
name: summarize
description: Summarizes analysis output for reporting.
---
Summarize the findings for {{company}}.
`

func TestLoadSpecDir(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "summarize", summarizeSkill)
	// Directories without SKILL.md are skipped.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	specs, err := LoadSpecDir(root)
	if err != nil {
		t.Fatalf("LoadSpecDir: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].Name != "summarize" {
		t.Fatalf("unexpected name: %q", specs[0].Name)
	}
	if !strings.Contains(specs[0].Body, "{{company}}") {
		t.Fatalf("unexpected body: %q", specs[0].Body)
	}
}

func TestLoadSpecFileValidation(t *testing.T) {
	root := t.TempDir()

	cases := []struct {
		dir     string
		content string
	}{
		{"noname", "---\ndescription: d\n---\nbody"},
		{"mismatch", "---\nname: other\ndescription: d\n---\nbody"},
		{"nodesc", "---\nname: nodesc\n---\nbody"},
		{"nobody", "---\nname: nobody\ndescription: d\n---\n"},
		{"nofm", "no frontmatter here"},
	}
	for _, tc := range cases {
		writeSkill(t, root, tc.dir, tc.content)
		if _, err := LoadSpecFile(filepath.Join(root, tc.dir, "SKILL.md")); err == nil {
			t.Errorf("%s: expected validation error", tc.dir)
		}
	}
}

func TestPromptPluginCall(t *testing.T) {
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			if !strings.Contains(req.Messages[1].Content, "ACME Corp") {
				t.Errorf("placeholder not rendered: %q", req.Messages[1].Content)
			}
			if !strings.Contains(req.Messages[1].Content, "Context:") {
				t.Errorf("extra args not appended: %q", req.Messages[1].Content)
			}
			return &llm.ChatResponse{Content: "summary text"}, nil
		},
	}

	plugin := NewPromptPlugin(provider, []PromptSpec{{
		Name:        "summarize",
		Description: "Summarizes analysis output.",
		Body:        "Summarize the findings for {{company}}.",
	}}, WithDefaultModel("test-model"))

	value, err := plugin.Call(context.Background(), "summarize", map[string]any{
		"company": "ACME Corp",
		"period":  "2025",
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if value != "summary text" {
		t.Fatalf("unexpected value: %v", value)
	}
}

func TestPromptPluginUnknownFunction(t *testing.T) {
	plugin := NewPromptPlugin(&llm.MockProvider{}, nil)
	_, err := plugin.Call(context.Background(), "ghost", nil)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestPromptPluginRetriesProvider(t *testing.T) {
	calls := 0
	flaky := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			if calls < 2 {
				return nil, errors.New(errors.CodeSkillFailure, "transient", nil).WithRecoverable(true)
			}
			return &llm.ChatResponse{Content: "recovered"}, nil
		},
	}

	plugin := NewPromptPlugin(flaky, []PromptSpec{{
		Name:        "s",
		Description: "d",
		Body:        "b",
	}}, WithRetry(resilience.DefaultRetryConfig().WithInitialDelay(time.Millisecond)))

	value, err := plugin.Call(context.Background(), "s", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if value != "recovered" || calls != 2 {
		t.Fatalf("expected recovery on attempt 2, got %v after %d calls", value, calls)
	}
}

func TestRenderPromptStringify(t *testing.T) {
	out := renderPrompt("Value: {{v}}", map[string]any{"v": map[string]any{"k": 1}})
	if !strings.Contains(out, `{"k":1}`) {
		t.Fatalf("expected JSON encoding, got %q", out)
	}
}
