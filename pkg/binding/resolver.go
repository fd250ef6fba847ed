// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"github.com/opencacm/adk/pkg/errors"
)

// Resolver resolves references against the namespaces in scope for one run.
// Inputs holds the declared input definitions (name → {value, type,
// description}); Outputs and Intermediate accumulate as steps capture
// results. Resolution is read-only and idempotent.
type Resolver struct {
	Inputs       map[string]any
	Outputs      map[string]any
	Intermediate map[string]any
}

// NewResolver creates a resolver with empty output and intermediate scopes.
func NewResolver(inputs map[string]any) *Resolver {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	return &Resolver{
		Inputs:       inputs,
		Outputs:      make(map[string]any),
		Intermediate: make(map[string]any),
	}
}

// Resolve returns the concrete value for a binding. Non-string values and
// strings without a recognized namespace prefix are literals. A missing
// segment fails with CodeUnresolvedBinding naming the reference and the
// failing segment.
func (r *Resolver) Resolve(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	ref, ok := Parse(s)
	if !ok {
		return value, nil
	}
	return r.ResolveRef(ref)
}

// ResolveRef resolves a parsed reference.
func (r *Resolver) ResolveRef(ref Reference) (any, error) {
	root := r.rootFor(ref.Namespace)

	// A single-segment input reference yields the input's value, not its
	// definition record. Deeper paths walk the record explicitly, e.g.
	// cacm.inputs.params.value.clientId.
	if ref.Namespace == NamespaceInputs && len(ref.Segments) == 1 {
		entry, ok := root[ref.Segments[0]]
		if !ok {
			return nil, unresolved(ref, ref.Segments[0])
		}
		if m, isMap := asMap(entry); isMap {
			if v, has := m["value"]; has {
				return v, nil
			}
		}
		return entry, nil
	}

	var node any = root
	for _, seg := range ref.Segments {
		if seg == "" {
			return nil, unresolved(ref, seg)
		}
		m, ok := asMap(node)
		if !ok {
			return nil, unresolved(ref, seg)
		}
		next, ok := m[seg]
		if !ok {
			return nil, unresolved(ref, seg)
		}
		node = next
	}
	return node, nil
}

// Bind writes value at target, which must reference cacm.outputs.* or
// intermediate.*. Nested entries are auto-created on the way down. The
// returned flag reports whether an existing value was overwritten
// (last write wins; the caller decides whether to log it).
func (r *Resolver) Bind(target string, value any) (bool, error) {
	ref, ok := Parse(target)
	if !ok {
		return false, errors.New(errors.CodeInvalidInput, "output binding target must reference cacm.outputs or intermediate", nil).
			WithContext("target", target)
	}
	if ref.Namespace == NamespaceInputs {
		return false, errors.New(errors.CodeInvalidInput, "output binding may not target cacm.inputs", nil).
			WithContext("target", target)
	}
	if len(ref.Segments) == 0 || ref.Segments[0] == "" {
		return false, errors.New(errors.CodeInvalidInput, "output binding target is empty", nil).
			WithContext("target", target)
	}

	node := r.rootFor(ref.Namespace)
	for _, seg := range ref.Segments[:len(ref.Segments)-1] {
		if seg == "" {
			return false, errors.New(errors.CodeInvalidInput, "output binding target has an empty segment", nil).
				WithContext("target", target)
		}
		child, ok := node[seg]
		if !ok {
			next := make(map[string]any)
			node[seg] = next
			node = next
			continue
		}
		m, ok := asMap(child)
		if !ok {
			// An intermediate scalar blocks the path; replace it so the
			// declared binding always lands.
			m = make(map[string]any)
			node[seg] = m
		}
		node = m
	}

	last := ref.Segments[len(ref.Segments)-1]
	_, overwrote := node[last]
	node[last] = value
	return overwrote, nil
}

func (r *Resolver) rootFor(ns Namespace) map[string]any {
	switch ns {
	case NamespaceInputs:
		return r.Inputs
	case NamespaceOutputs:
		return r.Outputs
	default:
		return r.Intermediate
	}
}

func unresolved(ref Reference, segment string) error {
	return errors.New(errors.CodeUnresolvedBinding, "reference did not resolve", nil).
		WithContext("reference", ref.String()).
		WithContext("segment", segment).
		WithAttribute("cacm.binding.ref", ref.String())
}

// asMap normalizes the map shapes produced by YAML and JSON decoding.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
