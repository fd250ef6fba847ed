// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package binding implements the reference mini-language used by workflow
// input and output bindings. A binding value is either a reference into one
// of the recognized namespaces or a literal passed through untouched.
package binding

import (
	"fmt"
	"strings"
)

// Namespace is a recognized binding root scope.
type Namespace string

const (
	NamespaceInputs       Namespace = "cacm.inputs"
	NamespaceOutputs      Namespace = "cacm.outputs"
	NamespaceIntermediate Namespace = "intermediate"
)

// Reference is a parsed binding reference: a namespace plus the dotted path
// segments below it.
type Reference struct {
	Namespace Namespace
	Segments  []string
}

// String reassembles the canonical reference text.
func (r Reference) String() string {
	return string(r.Namespace) + "." + strings.Join(r.Segments, ".")
}

// Unresolved marks a reference that did not resolve. The orchestrator binds
// it into the step input snapshot so missing values surface explicitly
// instead of silently becoming nil.
type Unresolved struct {
	Ref string
}

// String implements fmt.Stringer.
func (u Unresolved) String() string {
	return fmt.Sprintf("<unresolved:%s>", u.Ref)
}

// Parse splits a string into a Reference when it carries a recognized
// namespace prefix. The second return value is false for literals.
// A recognized prefix with an empty or malformed remainder still parses:
// resolution is where it fails, so the miss is reported, not swallowed.
func Parse(s string) (Reference, bool) {
	for _, ns := range []Namespace{NamespaceInputs, NamespaceOutputs, NamespaceIntermediate} {
		prefix := string(ns) + "."
		if strings.HasPrefix(s, prefix) {
			rest := strings.TrimPrefix(s, prefix)
			return Reference{Namespace: ns, Segments: strings.Split(rest, ".")}, true
		}
	}
	return Reference{}, false
}
