package core

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}
type delegationDepthKey struct{}

// WithRunID attaches a run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok
}

// EnsureRunID ensures a run id exists in the context.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

// WithDelegationDepth records the current agent-to-agent delegation depth.
func WithDelegationDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, delegationDepthKey{}, depth)
}

// DelegationDepth returns the delegation depth, zero at the step loop.
func DelegationDepth(ctx context.Context) int {
	depth, _ := ctx.Value(delegationDepthKey{}).(int)
	return depth
}
