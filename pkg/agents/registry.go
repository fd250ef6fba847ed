// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package agents manages the lifecycle of capability-bound agents: a
// process-wide factory registry keyed by agent type, and a Manager that
// constructs and caches one agent per capability id.
package agents

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/core"
)

// Deps carries the collaborators injected into every agent at
// construction. Agents delegate through Agents and compute through Skills.
type Deps struct {
	Agents     core.AgentProvider
	Skills     core.SkillInvoker
	Logger     *slog.Logger
	Descriptor catalog.Descriptor
}

// Factory builds an agent from its dependencies.
type Factory func(deps Deps) (core.Agent, error)

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a factory for agentType. Later registrations replace
// earlier ones. Call from init or main before any run starts.
func Register(agentType string, factory Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[agentType] = factory
}

// factoryFor returns the registered factory for agentType.
func factoryFor(agentType string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[agentType]
	return f, ok
}

// Types returns the registered agent types, sorted.
func Types() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
