package qaspec

import "fmt"

// SpecError is an authoring-time structural error: duplicate ids, bad
// references, cycles. These are surfaced on load; no partially-valid
// spec is exposed to planners.
type SpecError struct {
	Code    string
	Path    string
	Message string
}

func (e SpecError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
}

// SpecWarning is a non-fatal structural observation: the spec loads
// and runs fine, but something about its shape is probably an
// authoring mistake, such as a step no path through the flow ever
// reaches.
type SpecWarning struct {
	Code    string
	Path    string
	Message string
}

// SpecValidationResult collects every structural error found, never
// fail-fast, matching the rest of the engine's "report everything at
// once" convention.
type SpecValidationResult struct {
	Errors   []SpecError
	Warnings []SpecWarning
}

// Valid reports whether no structural errors were found.
func (r SpecValidationResult) Valid() bool { return len(r.Errors) == 0 }

// ValidateFormSpec checks question id uniqueness and, for list<record>
// questions, that nested field ids are unique within the record.
func ValidateFormSpec(f *FormSpec) SpecValidationResult {
	var result SpecValidationResult

	if f.ID == "" {
		result.Errors = append(result.Errors, SpecError{Code: "missing_id", Path: "/id", Message: "form id is required"})
	}

	seen := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		path := fmt.Sprintf("/questions/%d", i)
		if q.ID == "" {
			result.Errors = append(result.Errors, SpecError{Code: "missing_id", Path: path, Message: "question id is required"})
			continue
		}
		if seen[q.ID] {
			result.Errors = append(result.Errors, SpecError{Code: "duplicate_id", Path: path, Message: fmt.Sprintf("duplicate question id %q", q.ID)})
		}
		seen[q.ID] = true

		if q.Type == TypeListRecord {
			fieldSeen := make(map[string]bool, len(q.Fields))
			for j, field := range q.Fields {
				fp := fmt.Sprintf("%s/fields/%d", path, j)
				if field.ID == "" {
					result.Errors = append(result.Errors, SpecError{Code: "missing_id", Path: fp, Message: "record field id is required"})
					continue
				}
				if fieldSeen[field.ID] {
					result.Errors = append(result.Errors, SpecError{Code: "duplicate_id", Path: fp, Message: fmt.Sprintf("duplicate record field id %q", field.ID)})
				}
				fieldSeen[field.ID] = true
			}
		}
	}

	return result
}

// ValidateQAFlowSpec checks that entry and every goto/next reference a
// defined step or the distinguished end step, per the invariant in
// the data model. Reachability is not required: a step unreachable
// from entry does not make the flow invalid, but it is almost always
// an authoring mistake (a renamed step, a dangling draft), so it is
// reported as a warning rather than silently accepted.
func ValidateQAFlowSpec(flow *QAFlowSpec) SpecValidationResult {
	var result SpecValidationResult

	resolves := func(id StepID) bool {
		if id == EndStep || id == "" {
			return true
		}
		_, ok := flow.Steps[id]
		return ok
	}

	if !resolves(flow.Entry) || flow.Entry == "" {
		result.Errors = append(result.Errors, SpecError{Code: "bad_reference", Path: "/entry", Message: fmt.Sprintf("entry step %q is not defined", flow.Entry)})
	}

	for id, step := range flow.Steps {
		path := fmt.Sprintf("/steps/%s", id)
		switch step.Kind {
		case StepMessage, StepQuestion:
			if !resolves(step.Next) {
				result.Errors = append(result.Errors, SpecError{Code: "bad_reference", Path: path + "/next", Message: fmt.Sprintf("next step %q is not defined", step.Next)})
			}
		case StepDecision:
			for i, c := range step.Cases {
				if !resolves(c.Goto) {
					result.Errors = append(result.Errors, SpecError{Code: "bad_reference", Path: fmt.Sprintf("%s/cases/%d/goto", path, i), Message: fmt.Sprintf("goto step %q is not defined", c.Goto)})
				}
			}
			if step.DefaultGoto != "" && !resolves(step.DefaultGoto) {
				result.Errors = append(result.Errors, SpecError{Code: "bad_reference", Path: path + "/default_goto", Message: fmt.Sprintf("default_goto step %q is not defined", step.DefaultGoto)})
			}
		}
	}

	reachable := reachableSteps(flow)
	for id := range flow.Steps {
		if !reachable[id] {
			result.Warnings = append(result.Warnings, SpecWarning{Code: "unreachable_step", Path: fmt.Sprintf("/steps/%s", id), Message: fmt.Sprintf("step %q is never reached from entry %q", id, flow.Entry)})
		}
	}

	return result
}

// reachableSteps walks every next/goto/default_goto edge starting from
// flow.Entry and returns the set of step ids that walk visits. A step
// referenced only by a bad_reference (already reported as an error)
// contributes no edge, so it cannot wrongly mark anything reachable.
func reachableSteps(flow *QAFlowSpec) map[StepID]bool {
	visited := map[StepID]bool{}
	var walk func(StepID)
	walk = func(id StepID) {
		if id == EndStep || id == "" || visited[id] {
			return
		}
		step, ok := flow.Steps[id]
		if !ok {
			return
		}
		visited[id] = true
		switch step.Kind {
		case StepMessage, StepQuestion:
			walk(step.Next)
		case StepDecision:
			for _, c := range step.Cases {
				walk(c.Goto)
			}
			walk(step.DefaultGoto)
		}
	}
	walk(flow.Entry)
	return visited
}
