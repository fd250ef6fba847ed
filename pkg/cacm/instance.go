// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package cacm defines the workflow instance document: the externally
// authored object describing one analysis pipeline, and the validator that
// gates execution. Instances are immutable once execution begins.
package cacm

// InputDef declares a workflow input: its concrete value for this run plus
// documentation.
type InputDef struct {
	Value       any    `yaml:"value" json:"value"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// OutputDef declares a workflow output slot that steps bind into.
type OutputDef struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Step is one workflow step. InputBindings map an agent input name to a
// reference or literal; OutputBindings map a result payload field to a
// target under cacm.outputs.* or intermediate.*.
type Step struct {
	StepID         string            `yaml:"stepId" json:"stepId"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	CapabilityRef  string            `yaml:"computeCapabilityRef" json:"computeCapabilityRef"`
	InputBindings  map[string]any    `yaml:"inputBindings,omitempty" json:"inputBindings,omitempty"`
	OutputBindings map[string]string `yaml:"outputBindings,omitempty" json:"outputBindings,omitempty"`

	// Required marks a step whose failure stops the run instead of
	// fail-forward.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`
}

// Instance is a complete workflow instance document.
type Instance struct {
	ID          string               `yaml:"cacmId" json:"cacmId"`
	Name        string               `yaml:"name,omitempty" json:"name,omitempty"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	Inputs      map[string]InputDef  `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs     map[string]OutputDef `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Workflow    []Step               `yaml:"workflow" json:"workflow"`
}

// InputScope builds the declared-input namespace for the binding resolver:
// name → {value, type, description}, so dotted paths can walk into the
// definition record.
func (i *Instance) InputScope() map[string]any {
	scope := make(map[string]any, len(i.Inputs))
	for name, def := range i.Inputs {
		scope[name] = map[string]any{
			"value":       def.Value,
			"type":        def.Type,
			"description": def.Description,
		}
	}
	return scope
}

// DeclaresOutput reports whether name is a declared workflow output.
func (i *Instance) DeclaresOutput(name string) bool {
	_, ok := i.Outputs[name]
	return ok
}
