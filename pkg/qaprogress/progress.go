// Package qaprogress implements the progress engine: choosing the next
// visible, unsatisfied question in declaration order, and computing
// which defaults/computed fields should be autofilled via effects.
package qaprogress

import (
	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qajsonptr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// Progress reports how many visible questions are answered out of how
// many are currently visible.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// Autofill is a planned default-value assignment, to be turned into a
// SetAnswer effect by the planner.
type Autofill struct {
	QuestionID string
	Value      any
}

// Result is the progress engine's total output for one (spec, ctx,
// answers) triple.
type Result struct {
	NextQuestionID string
	Progress       Progress
	Autofills      []Autofill
	// ComputedAssignments are always-populate effects for computed
	// questions, independent of ProgressPolicy.AutofillDefaults.
	ComputedAssignments []Autofill
}

type satisfactionCheck struct {
	policy      qaspec.ProgressPolicy
	state       any
	config      any
}

// Next computes the next question, progress counters, and autofill
// plan for spec against the given answers and wider context trees
// (state/config, for skip_if_present_in checks).
func Next(spec *qaspec.FormSpec, answers, state, config any, mode qaexpr.VisibilityMode) Result {
	sc := satisfactionCheck{policy: spec.ProgressPolicy, state: state, config: config}

	var result Result
	nextFound := false

	for _, q := range spec.Questions {
		visible, _ := qaexpr.ResolveVisible(q.VisibleIf, answers, mode)

		if q.Computed != nil {
			if v, err := qaexpr.Evaluate(*q.Computed, answers); err == nil {
				result.ComputedAssignments = append(result.ComputedAssignments, Autofill{QuestionID: q.ID, Value: v})
			}
			continue
		}

		if !visible {
			continue
		}

		result.Progress.Total++
		answered := hasAnswer(answers, q.ID)
		satisfied := answered || sc.satisfiedByPolicy(q, answers)

		if satisfied {
			result.Progress.Answered++
			continue
		}

		if spec.ProgressPolicy.AutofillDefaults && q.Required && q.Default != nil {
			result.Autofills = append(result.Autofills, Autofill{QuestionID: q.ID, Value: q.Default})
			result.Progress.Answered++
			continue
		}

		if !nextFound {
			result.NextQuestionID = q.ID
			nextFound = true
		}
	}

	return result
}

// satisfiedByPolicy checks the two satisfaction conditions beyond "has
// a direct answer": skip_if_present_in hits and treat_default_as_answered.
func (sc satisfactionCheck) satisfiedByPolicy(q qaspec.QuestionSpec, answers any) bool {
	for _, target := range sc.policy.SkipTargets(q.ID) {
		var tree any
		switch target {
		case "state":
			tree = sc.state
		case "config":
			tree = sc.config
		case "answers":
			tree = answers
		default:
			continue
		}
		if qajsonptr.Has(tree, "/"+q.ID) {
			return true
		}
	}
	if sc.policy.TreatDefaultAsAnswered && q.Default != nil {
		return true
	}
	return false
}

func hasAnswer(answers any, questionID string) bool {
	return qajsonptr.Has(answers, "/"+questionID)
}
