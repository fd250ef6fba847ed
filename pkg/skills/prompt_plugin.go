// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/opencacm/adk/pkg/errors"
	"github.com/opencacm/adk/pkg/llm"
	"github.com/opencacm/adk/pkg/resilience"
)

// PromptPlugin serves prompt-backed skills: each function is a PromptSpec
// whose body is rendered with the call arguments and sent to a chat model.
type PromptPlugin struct {
	provider llm.Provider
	model    string
	retry    resilience.RetryConfig
	specs    map[string]PromptSpec
}

// PromptOption customizes a PromptPlugin.
type PromptOption func(*PromptPlugin)

// WithDefaultModel sets the model used when a spec names none.
func WithDefaultModel(model string) PromptOption {
	return func(p *PromptPlugin) { p.model = model }
}

// WithRetry overrides the provider retry policy.
func WithRetry(rc resilience.RetryConfig) PromptOption {
	return func(p *PromptPlugin) { p.retry = rc }
}

// NewPromptPlugin creates a PromptPlugin over the given specs.
func NewPromptPlugin(provider llm.Provider, specs []PromptSpec, opts ...PromptOption) *PromptPlugin {
	p := &PromptPlugin{
		provider: provider,
		retry:    resilience.DefaultRetryConfig(),
		specs:    make(map[string]PromptSpec, len(specs)),
	}
	for _, spec := range specs {
		p.specs[spec.Name] = spec
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPromptPluginFromDir loads SKILL.md specs under root.
func NewPromptPluginFromDir(provider llm.Provider, root string, opts ...PromptOption) (*PromptPlugin, error) {
	specs, err := LoadSpecDir(root)
	if err != nil {
		return nil, err
	}
	return NewPromptPlugin(provider, specs, opts...), nil
}

// Call implements Plugin. The rendered prompt is the spec body with
// {{name}} placeholders substituted; unreferenced arguments are appended as
// a JSON context block.
func (p *PromptPlugin) Call(ctx context.Context, function string, args map[string]any) (any, error) {
	spec, ok := p.specs[function]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "prompt skill not found", nil).
			WithContext("function", function)
	}

	prompt := renderPrompt(spec.Body, args)
	model := spec.Model
	if model == "" {
		model = p.model
	}

	req := llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: spec.Description},
			{Role: llm.RoleUser, Content: prompt},
		},
	}

	resp, err := resilience.DoWithResult(ctx, p.retry, func() (*llm.ChatResponse, error) {
		return p.provider.Chat(ctx, req)
	})
	if err != nil {
		return nil, errors.New(errors.CodeSkillFailure, "chat provider failed", err).
			WithContext("skill", function).
			WithRecoverable(true)
	}
	return resp.Content, nil
}

// Functions implements Plugin.
func (p *PromptPlugin) Functions() []string {
	names := make([]string, 0, len(p.specs))
	for name := range p.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderPrompt substitutes {{name}} placeholders and appends any arguments
// the template does not reference.
func renderPrompt(body string, args map[string]any) string {
	rendered := body
	used := make(map[string]bool, len(args))
	for name, value := range args {
		placeholder := "{{" + name + "}}"
		if strings.Contains(rendered, placeholder) {
			rendered = strings.ReplaceAll(rendered, placeholder, stringify(value))
			used[name] = true
		}
	}

	rest := make(map[string]any)
	for name, value := range args {
		if !used[name] {
			rest[name] = value
		}
	}
	if len(rest) > 0 {
		if encoded, err := json.MarshalIndent(rest, "", "  "); err == nil {
			rendered += "\n\nContext:\n" + string(encoded)
		}
	}
	return rendered
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}
