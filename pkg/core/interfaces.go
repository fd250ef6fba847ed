package core

import "context"

// Agent is the polymorphic unit of work. One agent executes one workflow
// step given the resolved inputs and the run's shared context.
type Agent interface {
	// Name returns the agent's identity, usually the capability id it was
	// created for.
	Name() string

	// Run executes the step. Business-logic failures are reported through
	// the result status, not the error: a non-nil error means the agent
	// itself misbehaved (programmer error, panic equivalent) and is treated
	// as an execution failure by the orchestrator.
	Run(ctx context.Context, task string, inputs map[string]any, sc *SharedContext) (*AgentResult, error)
}

// AgentProvider resolves a capability id to a live agent instance. It is the
// only sanctioned path for agent-to-agent delegation: an agent that needs a
// peer asks its provider rather than constructing one itself.
type AgentProvider interface {
	GetOrCreate(ctx context.Context, capabilityID string) (Agent, error)
}

// SkillInvoker is the skill/LLM invocation layer. Failures are returned to
// the calling agent, which converts them into an error-status result; the
// orchestrator never sees a skill error directly.
type SkillInvoker interface {
	Invoke(ctx context.Context, plugin, function string, args map[string]any) (any, error)
}
