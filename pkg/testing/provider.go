// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencacm/adk/pkg/core"
)

// ScriptedInvoker is a skill invoker for testing scenarios. It returns
// queued results in order and captures every invocation for inspection.
type ScriptedInvoker struct {
	mu           sync.Mutex
	results      []ScriptedResult
	currentIndex int
	invocations  []Invocation
	defaultError error
	onInvoke     func(inv Invocation) (any, error)
}

// ScriptedResult defines one queued invocation result.
type ScriptedResult struct {
	Value any
	Error error
	// Condition makes the result apply only to matching invocations.
	Condition func(inv Invocation) bool
}

// Invocation records one skill invocation.
type Invocation struct {
	Plugin   string
	Function string
	Args     map[string]any
}

// NewScriptedInvoker creates an empty scripted invoker.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{
		results:     make([]ScriptedResult, 0),
		invocations: make([]Invocation, 0),
	}
}

// AddResult queues a value to be returned.
func (p *ScriptedInvoker) AddResult(value any) *ScriptedInvoker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, ScriptedResult{Value: value})
	return p
}

// AddErrorResult queues an error to be returned.
func (p *ScriptedInvoker) AddErrorResult(err error) *ScriptedInvoker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, ScriptedResult{Error: err})
	return p
}

// AddScriptedResult queues a fully configured result.
func (p *ScriptedInvoker) AddScriptedResult(res ScriptedResult) *ScriptedInvoker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, res)
	return p
}

// WithDefaultError sets the error returned when the queue is exhausted.
func (p *ScriptedInvoker) WithDefaultError(err error) *ScriptedInvoker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultError = err
	return p
}

// WithInvokeFunc sets a custom handler that bypasses the queue.
func (p *ScriptedInvoker) WithInvokeFunc(fn func(inv Invocation) (any, error)) *ScriptedInvoker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onInvoke = fn
	return p
}

// Invoke implements core.SkillInvoker.
func (p *ScriptedInvoker) Invoke(ctx context.Context, plugin, function string, args map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv := Invocation{Plugin: plugin, Function: function, Args: args}
	p.invocations = append(p.invocations, inv)

	if p.onInvoke != nil {
		return p.onInvoke(inv)
	}

	if p.currentIndex >= len(p.results) {
		if p.defaultError != nil {
			return nil, p.defaultError
		}
		return nil, fmt.Errorf("no more scripted results (call %d)", p.currentIndex+1)
	}

	res := p.results[p.currentIndex]
	p.currentIndex++

	// Skip non-matching conditional results
	if res.Condition != nil && !res.Condition(inv) {
		for p.currentIndex < len(p.results) {
			res = p.results[p.currentIndex]
			p.currentIndex++
			if res.Condition == nil || res.Condition(inv) {
				break
			}
		}
	}

	if res.Error != nil {
		return nil, res.Error
	}
	return res.Value, nil
}

// Invocations returns all captured invocations.
func (p *ScriptedInvoker) Invocations() []Invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]Invocation, len(p.invocations))
	copy(result, p.invocations)
	return result
}

// LastInvocation returns the most recent invocation.
func (p *ScriptedInvoker) LastInvocation() *Invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.invocations) == 0 {
		return nil
	}
	inv := p.invocations[len(p.invocations)-1]
	return &inv
}

// CallCount returns the number of Invoke calls made.
func (p *ScriptedInvoker) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.invocations)
}

// Reset clears the queue position and captured invocations.
func (p *ScriptedInvoker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentIndex = 0
	p.invocations = p.invocations[:0]
}

var _ core.SkillInvoker = (*ScriptedInvoker)(nil)
