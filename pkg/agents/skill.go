// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"context"
	"fmt"

	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/core"
	"github.com/opencacm/adk/pkg/errors"
)

// SkillAgent executes the default skill of its capability descriptor with
// the resolved step inputs as arguments. Skill failures become error-status
// results; the orchestrator never sees them as Go errors.
type SkillAgent struct {
	deps Deps
}

// NewSkillAgent constructs a SkillAgent. The descriptor must carry a
// default skill binding.
func NewSkillAgent(deps Deps) (core.Agent, error) {
	if deps.Skills == nil {
		return nil, fmt.Errorf("skill invoker is required")
	}
	if deps.Descriptor.DefaultSkill == nil {
		return nil, fmt.Errorf("capability %s has no default skill", deps.Descriptor.ID)
	}
	return &SkillAgent{deps: deps}, nil
}

// Name implements core.Agent.
func (a *SkillAgent) Name() string {
	return a.deps.Descriptor.ID
}

// Run implements core.Agent.
func (a *SkillAgent) Run(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
	skill := a.deps.Descriptor.DefaultSkill

	args := make(map[string]any, len(inputs))
	for k, v := range inputs {
		args[k] = v
	}

	value, err := a.deps.Skills.Invoke(ctx, skill.Plugin, skill.Function, args)
	if err != nil {
		a.deps.Logger.Error("skill invocation failed",
			"plugin", skill.Plugin,
			"function", skill.Function,
			"error", err)
		msg := err.Error()
		if ee := errors.AsEngineError(err); ee != nil {
			msg = ee.Message
		}
		return core.Fail(msg), nil
	}

	payload := payloadFromValue(value, a.deps.Descriptor)
	return core.Succeed(payload), nil
}

// payloadFromValue shapes a skill return value into named payload fields.
// Map results become the payload directly; scalar results land under the
// descriptor's first declared output, or "result".
func payloadFromValue(value any, desc catalog.Descriptor) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	field := "result"
	if len(desc.Outputs) > 0 && desc.Outputs[0].Name != "" {
		field = desc.Outputs[0].Name
	}
	return map[string]any{field: value}
}

func init() {
	Register("skill", NewSkillAgent)
}
