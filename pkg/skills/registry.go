// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package skills is the compute layer behind capability-bound agents. A
// Registry multiplexes named plugins; each plugin exposes named functions
// that take an argument map and return a value.
package skills

import (
	"context"
	"sort"
	"sync"

	"github.com/opencacm/adk/pkg/core"
	"github.com/opencacm/adk/pkg/errors"
	"github.com/opencacm/adk/pkg/telemetry"
)

// Plugin exposes a set of named functions.
type Plugin interface {
	// Call invokes one function with the given arguments.
	Call(ctx context.Context, function string, args map[string]any) (any, error)

	// Functions lists the function names this plugin serves. Plugins with
	// dynamic surfaces may return a best-effort snapshot.
	Functions() []string
}

// Registry maps plugin names to plugins and implements core.SkillInvoker.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	metrics *telemetry.ErrorMetrics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// SetErrorMetrics attaches error instruments to the registry. Failed
// invocations are counted per plugin; a nil value disables counting.
func (r *Registry) SetErrorMetrics(em *telemetry.ErrorMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = em
}

// Register adds or replaces a plugin under name.
func (r *Registry) Register(name string, plugin Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = plugin
}

// Plugin returns the registered plugin, if any.
func (r *Registry) Plugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Plugins returns the registered plugin names, sorted.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke implements core.SkillInvoker. Unknown plugins yield
// errors.CodeNotFound; plugin failures are wrapped as
// errors.CodeSkillFailure with plugin and function context.
func (r *Registry) Invoke(ctx context.Context, plugin, function string, args map[string]any) (any, error) {
	p, ok := r.Plugin(plugin)
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "skill plugin not registered", nil).
			WithContext("plugin", plugin)
	}

	value, err := p.Call(ctx, function, args)
	if err != nil {
		if ee := errors.AsEngineError(err); ee != nil {
			err = ee.WithContext("plugin", plugin).WithContext("function", function)
		} else {
			err = errors.New(errors.CodeSkillFailure, "skill invocation failed", err).
				WithContext("plugin", plugin).
				WithContext("function", function)
		}
		r.errorMetrics().RecordError(ctx, err, "skills/"+plugin)
		return nil, err
	}
	return value, nil
}

func (r *Registry) errorMetrics() *telemetry.ErrorMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}

var _ core.SkillInvoker = (*Registry)(nil)
