// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"context"
	"log/slog"
	"sync"

	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/core"
	"github.com/opencacm/adk/pkg/errors"
)

// DefaultMaxDelegationDepth bounds agent-to-agent delegation chains.
const DefaultMaxDelegationDepth = 8

// DefaultAgentType is used when a capability descriptor does not name an
// agent type. Descriptors with a default skill run as skill agents.
const DefaultAgentType = "skill"

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithMaxDelegationDepth overrides the delegation depth bound.
func WithMaxDelegationDepth(depth int) ManagerOption {
	return func(m *Manager) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// Manager constructs agents on demand and caches them by capability id.
// The same capability always yields the same instance for the manager's
// lifetime, so agent state persists across steps and runs.
type Manager struct {
	catalog  *catalog.Catalog
	skills   core.SkillInvoker
	logger   *slog.Logger
	maxDepth int

	mu    sync.Mutex
	cache map[string]core.Agent
}

// NewManager creates a Manager over the given catalog and skill invoker.
func NewManager(cat *catalog.Catalog, skills core.SkillInvoker, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		catalog:  cat,
		skills:   skills,
		logger:   logger,
		maxDepth: DefaultMaxDelegationDepth,
		cache:    make(map[string]core.Agent),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate implements core.AgentProvider. It resolves the capability
// descriptor, constructs the agent through its registered factory on first
// use and returns the cached instance afterwards.
func (m *Manager) GetOrCreate(ctx context.Context, capabilityID string) (core.Agent, error) {
	if depth := core.DelegationDepth(ctx); depth > m.maxDepth {
		return nil, errors.New(errors.CodeDelegationDepth, "delegation depth exceeded", nil).
			WithContext("capability", capabilityID).
			WithContext("depth", depth).
			WithContext("max_depth", m.maxDepth)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if agent, ok := m.cache[capabilityID]; ok {
		return agent, nil
	}

	desc, ok := m.catalog.Lookup(capabilityID)
	if !ok {
		return nil, errors.New(errors.CodeCapabilityNotFound, "capability not in catalog", nil).
			WithContext("capability", capabilityID)
	}

	agentType := desc.AgentType
	if agentType == "" {
		agentType = DefaultAgentType
	}
	factory, ok := factoryFor(agentType)
	if !ok {
		return nil, errors.New(errors.CodeAgentConstruction, "no factory for agent type", nil).
			WithContext("capability", capabilityID).
			WithContext("agent_type", agentType)
	}

	agent, err := factory(Deps{
		Agents:     m,
		Skills:     m.skills,
		Logger:     m.logger.With("capability", capabilityID),
		Descriptor: desc,
	})
	if err != nil {
		return nil, errors.New(errors.CodeAgentConstruction, "agent factory failed", err).
			WithContext("capability", capabilityID).
			WithContext("agent_type", agentType)
	}

	m.logger.Debug("agent constructed", "capability", capabilityID, "agent_type", agentType)
	m.cache[capabilityID] = agent
	return agent, nil
}

// Delegate runs another capability's agent on behalf of the caller,
// incrementing the delegation depth carried in the context.
func (m *Manager) Delegate(ctx context.Context, capabilityID, task string, inputs map[string]any, sc *core.SharedContext) (*core.AgentResult, error) {
	ctx = core.WithDelegationDepth(ctx, core.DelegationDepth(ctx)+1)
	agent, err := m.GetOrCreate(ctx, capabilityID)
	if err != nil {
		return nil, err
	}
	return agent.Run(ctx, task, inputs, sc)
}

// Cached reports whether an agent is already constructed for capabilityID.
func (m *Manager) Cached(capabilityID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cache[capabilityID]
	return ok
}

var _ core.AgentProvider = (*Manager)(nil)
