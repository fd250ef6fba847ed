package skills

import (
	"context"
	stderrors "errors"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/opencacm/adk/pkg/errors"
)

type fakeToolCaller struct {
	tools   []mcpgo.Tool
	result  *mcpgo.CallToolResult
	err     error
	lastArg map[string]any
}

func (f *fakeToolCaller) ListTools(ctx context.Context) ([]mcpgo.Tool, error) {
	return f.tools, f.err
}

func (f *fakeToolCaller) CallTool(ctx context.Context, name string, args map[string]any) (*mcpgo.CallToolResult, error) {
	f.lastArg = args
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestMCPPluginCall(t *testing.T) {
	caller := &fakeToolCaller{
		result: &mcpgo.CallToolResult{
			Content: []mcpgo.Content{mcpgo.TextContent{Type: "text", Text: "tool output"}},
		},
	}
	plugin := NewMCPPlugin("docs", caller)

	value, err := plugin.Call(context.Background(), "fetch", map[string]any{"url": "https://example.com"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if value != "tool output" {
		t.Fatalf("unexpected value: %v", value)
	}
	if caller.lastArg["url"] != "https://example.com" {
		t.Fatalf("args not forwarded: %+v", caller.lastArg)
	}
}

func TestMCPPluginFailure(t *testing.T) {
	caller := &fakeToolCaller{err: stderrors.New("connection refused")}
	plugin := NewMCPPlugin("docs", caller)

	_, err := plugin.Call(context.Background(), "fetch", nil)
	if !errors.IsCode(err, errors.CodeSkillFailure) {
		t.Fatalf("expected skill-failure code, got %v", err)
	}
}

func TestMCPPluginFunctions(t *testing.T) {
	caller := &fakeToolCaller{tools: []mcpgo.Tool{{Name: "fetch"}, {Name: "search"}}}
	plugin := NewMCPPlugin("docs", caller)

	fns := plugin.Functions()
	if len(fns) != 2 || fns[0] != "fetch" {
		t.Fatalf("unexpected functions: %v", fns)
	}
}
