package cacm

import (
	"fmt"
	"sort"

	"github.com/opencacm/adk/pkg/binding"
)

// Issue is one validation finding, addressed by document path. Issues keep
// document order so reports are stable.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validator gates execution: any issue is fatal before the first step runs.
type Validator interface {
	Validate(inst *Instance) []Issue
}

// StructValidator performs structural validation of an instance. It does not
// check capability existence (step-local at runtime) or binding
// resolvability beyond what is statically decidable.
type StructValidator struct{}

// NewStructValidator returns the default instance validator.
func NewStructValidator() *StructValidator {
	return &StructValidator{}
}

// Validate implements Validator.
func (v *StructValidator) Validate(inst *Instance) []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if inst == nil {
		return []Issue{{Path: "", Message: "instance is nil"}}
	}
	if inst.ID == "" {
		add("cacmId", "cacmId is required")
	}
	if len(inst.Workflow) == 0 {
		add("workflow", "workflow must have at least one step")
	}

	seen := make(map[string]bool, len(inst.Workflow))
	for idx, step := range inst.Workflow {
		stepPath := fmt.Sprintf("workflow[%d]", idx)
		if step.StepID == "" {
			add(stepPath+".stepId", "stepId is required")
		} else if seen[step.StepID] {
			add(stepPath+".stepId", "duplicate stepId %q", step.StepID)
		}
		seen[step.StepID] = true

		if step.CapabilityRef == "" {
			add(stepPath+".computeCapabilityRef", "computeCapabilityRef is required")
		}

		for _, name := range sortedKeys(step.InputBindings) {
			s, ok := step.InputBindings[name].(string)
			if !ok {
				continue
			}
			ref, ok := binding.Parse(s)
			if !ok {
				continue
			}
			// Only the first segment of a cacm.inputs reference is statically
			// decidable; deeper paths depend on the input value's shape.
			if ref.Namespace == binding.NamespaceInputs && len(ref.Segments) > 0 {
				if _, declared := inst.Inputs[ref.Segments[0]]; !declared {
					add(fmt.Sprintf("%s.inputBindings.%s", stepPath, name),
						"reference %q names undeclared input %q", s, ref.Segments[0])
				}
			}
		}

		for _, field := range sortedKeys(step.OutputBindings) {
			target := step.OutputBindings[field]
			path := fmt.Sprintf("%s.outputBindings.%s", stepPath, field)
			ref, ok := binding.Parse(target)
			if !ok {
				add(path, "target %q must reference cacm.outputs.* or intermediate.*", target)
				continue
			}
			switch ref.Namespace {
			case binding.NamespaceInputs:
				add(path, "target %q may not write into cacm.inputs", target)
			case binding.NamespaceOutputs:
				if len(ref.Segments) == 0 || ref.Segments[0] == "" {
					add(path, "target %q is missing an output name", target)
				} else if !inst.DeclaresOutput(ref.Segments[0]) {
					add(path, "target %q names undeclared output %q", target, ref.Segments[0])
				}
			}
		}
	}

	return issues
}

// sortedKeys gives map iteration a stable order so issue reports do not
// reshuffle between runs of the same document.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
