// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/opencacm/adk/pkg/errors"
	"github.com/opencacm/adk/pkg/mcp"
	"github.com/opencacm/adk/pkg/resilience"
)

// ToolCaller abstracts the MCP client so tests can substitute a fake.
type ToolCaller interface {
	ListTools(ctx context.Context) ([]mcpgo.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcpgo.CallToolResult, error)
}

// MCPPlugin serves skills hosted on an external MCP server. Each function
// name is an MCP tool name. The client handles retry and timeout; the
// plugin adds a circuit breaker so a dead server fails fast.
type MCPPlugin struct {
	caller  ToolCaller
	breaker *resilience.CircuitBreaker
}

// NewMCPPlugin creates an MCPPlugin over the given caller.
func NewMCPPlugin(name string, caller ToolCaller) *MCPPlugin {
	return &MCPPlugin{
		caller: caller,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "mcp_" + name,
		}),
	}
}

// Call implements Plugin.
func (p *MCPPlugin) Call(ctx context.Context, function string, args map[string]any) (any, error) {
	normalized, err := mcp.NormalizeArgs(args)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "invalid mcp tool arguments", err).
			WithContext("function", function)
	}

	var value any
	err = p.breaker.Call(ctx, func() error {
		result, callErr := p.caller.CallTool(ctx, function, normalized)
		if callErr != nil {
			return callErr
		}
		value, callErr = mcp.ResultValue(result)
		return callErr
	})
	if err != nil {
		if ee := errors.AsEngineError(err); ee != nil {
			return nil, ee
		}
		return nil, errors.New(errors.CodeSkillFailure, "mcp tool call failed", err).
			WithContext("function", function).
			WithRecoverable(true)
	}
	return value, nil
}

// Functions implements Plugin by listing the server's tools. Returns nil on
// discovery failure.
func (p *MCPPlugin) Functions() []string {
	tools, err := p.caller.ListTools(context.Background())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}
