// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"
	"sort"
	"sync"

	"github.com/opencacm/adk/pkg/errors"
)

// Func is an in-process skill function.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FuncPlugin serves in-process Go functions. It backs local capabilities
// and test fixtures.
type FuncPlugin struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewFuncPlugin creates an empty FuncPlugin.
func NewFuncPlugin() *FuncPlugin {
	return &FuncPlugin{funcs: make(map[string]Func)}
}

// RegisterFunc adds or replaces a function under name.
func (p *FuncPlugin) RegisterFunc(name string, fn Func) *FuncPlugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.funcs[name] = fn
	return p
}

// Call implements Plugin.
func (p *FuncPlugin) Call(ctx context.Context, function string, args map[string]any) (any, error) {
	p.mu.RLock()
	fn, ok := p.funcs[function]
	p.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "skill function not registered", nil).
			WithContext("function", function)
	}
	return fn(ctx, args)
}

// Functions implements Plugin.
func (p *FuncPlugin) Functions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.funcs))
	for name := range p.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
