// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"context"

	"github.com/opencacm/adk/pkg/core"
)

// EchoAgent returns its resolved inputs as the result payload. Useful for
// wiring checks and as the simplest reference agent.
type EchoAgent struct {
	deps Deps
}

// NewEchoAgent constructs an EchoAgent.
func NewEchoAgent(deps Deps) (core.Agent, error) {
	return &EchoAgent{deps: deps}, nil
}

// Name implements core.Agent.
func (a *EchoAgent) Name() string {
	return a.deps.Descriptor.ID
}

// Run implements core.Agent.
func (a *EchoAgent) Run(ctx context.Context, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
	payload := make(map[string]any, len(inputs)+1)
	for k, v := range inputs {
		payload[k] = v
	}
	if task != "" {
		payload["task"] = task
	}
	return core.Succeed(payload), nil
}

func init() {
	Register("echo", NewEchoAgent)
}
