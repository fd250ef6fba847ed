// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the static capability catalog: the table mapping a
// capability identifier to the descriptor the orchestrator uses to select
// and construct an agent. Loaded once per process, immutable after load.
package catalog

import (
	"log/slog"
	"sort"
)

// SkillRef names a skill plugin function.
type SkillRef struct {
	Plugin   string `yaml:"plugin" json:"plugin"`
	Function string `yaml:"function" json:"function"`
}

// PortDef documents a declared input or output of a capability. Ports are
// documentation for authors and the CLI; they are not runtime-enforced.
type PortDef struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Descriptor describes one catalog capability.
type Descriptor struct {
	ID           string    `yaml:"id" json:"id"`
	AgentType    string    `yaml:"agentType" json:"agentType"`
	Description  string    `yaml:"description,omitempty" json:"description,omitempty"`
	DefaultSkill *SkillRef `yaml:"defaultSkill,omitempty" json:"defaultSkill,omitempty"`
	Inputs       []PortDef `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs      []PortDef `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}

// Catalog is an immutable capability table.
type Catalog struct {
	entries map[string]Descriptor
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{entries: make(map[string]Descriptor)}
}

// FromDescriptors builds a catalog from a descriptor list. Duplicate ids:
// the last entry wins and a warning is logged.
func FromDescriptors(descs []Descriptor, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		if d.ID == "" {
			logger.Warn("skipping catalog entry without id")
			continue
		}
		if _, dup := entries[d.ID]; dup {
			logger.Warn("duplicate capability id, last entry wins", "capability", d.ID)
		}
		entries[d.ID] = d
	}
	return &Catalog{entries: entries}
}

// Lookup returns the descriptor for a capability id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	d, ok := c.entries[id]
	return d, ok
}

// Len returns the number of cataloged capabilities.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// IDs returns the capability ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
