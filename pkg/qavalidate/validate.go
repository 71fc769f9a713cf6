// Package qavalidate implements per-field, cross-field and
// unknown-field validation of an answer set against a FormSpec,
// collecting every finding rather than failing fast, so a host can
// show them together.
package qavalidate

import (
	"fmt"
	"regexp"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qajsonptr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// Mode selects how much of the answer set is re-checked.
type Mode string

const (
	// Patch re-checks only the submitted field plus cross-field rules
	// that depend on it.
	Patch Mode = "patch"
	// All re-checks the entire answer set.
	All Mode = "all"
)

// UnknownFieldMode selects strict vs permissive unknown-field handling.
type UnknownFieldMode string

const (
	Strict     UnknownFieldMode = "strict"
	Permissive UnknownFieldMode = "permissive"
)

// ValidationError is one failed constraint, pointing at its exact JSON
// location.
type ValidationError struct {
	QuestionID string `json:"question_id,omitempty"`
	Path       string `json:"path"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Result is the outcome of a validation call.
type Result struct {
	Valid           bool              `json:"valid"`
	Errors          []ValidationError `json:"errors"`
	MissingRequired []string          `json:"missing_required"`
	UnknownFields   []string          `json:"unknown_fields"`
	Warnings        []string          `json:"warnings"`
}

func (r *Result) addError(e ValidationError) {
	r.Errors = append(r.Errors, e)
	r.Valid = false
}

// Options bundles the inputs that are not the spec/answers/rules
// themselves.
type Options struct {
	Mode             Mode
	UnknownFieldMode UnknownFieldMode
	VisibilityMode   qaexpr.VisibilityMode
	CrossFieldRules  []qaspec.CrossFieldRule
	// SubmittedQuestionID is required when Mode == Patch: only this
	// field (plus dependent cross-field rules) is re-checked.
	SubmittedQuestionID string
	// ProgressPolicy gates whether a required question with a literal
	// Default is exempt from missing_required: exempt only when the
	// progress engine will actually treat it as answered, mirroring
	// qaprogress.Next's own autofill/treat-as-answered checks.
	ProgressPolicy qaspec.ProgressPolicy
}

// Validate checks answers against spec's questions under opts.
func Validate(spec *qaspec.FormSpec, answers any, opts Options) Result {
	result := Result{Valid: true}

	visible := make(map[string]bool, len(spec.Questions))
	for _, q := range spec.Questions {
		v, _ := qaexpr.ResolveVisible(q.VisibleIf, answers, opts.VisibilityMode)
		visible[q.ID] = v
	}

	checkField := func(q qaspec.QuestionSpec) {
		if q.Computed != nil {
			if _, has := get(answers, q.ID); has {
				// Whether computed fields participate in unknown-field
				// detection is unspecified; a warning is surfaced and
				// the submitted value is ignored rather than validated,
				// since the planner always recomputes it via effects.
				result.Warnings = append(result.Warnings, fmt.Sprintf("submitted value for computed field %q is ignored", q.ID))
			}
			return
		}
		value, has := get(answers, q.ID)

		if !visible[q.ID] {
			return
		}

		if !has {
			if q.Required && !defaultSatisfies(q, opts.ProgressPolicy) {
				result.MissingRequired = append(result.MissingRequired, q.ID)
				result.addError(ValidationError{QuestionID: q.ID, Path: "/" + q.ID, Code: "missing_required", Message: "required answer is missing"})
			}
			return
		}

		for _, err := range validateValue(q, value) {
			result.addError(err)
		}
	}

	switch opts.Mode {
	case Patch:
		for _, q := range spec.Questions {
			if q.ID == opts.SubmittedQuestionID {
				checkField(q)
			}
		}
	default: // All
		for _, q := range spec.Questions {
			checkField(q)
		}
	}

	applyCrossFieldRules(spec, answers, visible, opts, &result)

	checkUnknownFields(spec, answers, opts, &result)

	return result
}

// defaultSatisfies reports whether q's literal Default exempts a
// missing required answer, the same way qaprogress.Next decides a
// required-with-default question is already satisfied: either the
// policy autofills it (so the planner will supply it as an effect) or
// the policy treats a present default as answered outright. A literal
// Default with neither policy bit set is not an answer by itself.
func defaultSatisfies(q qaspec.QuestionSpec, policy qaspec.ProgressPolicy) bool {
	if q.Default == nil {
		return false
	}
	return policy.AutofillDefaults || policy.TreatDefaultAsAnswered
}

func validateValue(q qaspec.QuestionSpec, value any) []ValidationError {
	path := "/" + q.ID
	var errs []ValidationError

	switch q.Type {
	case qaspec.TypeString:
		s, ok := value.(string)
		if !ok {
			return []ValidationError{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected a string"}}
		}
		if q.Pattern != "" {
			re, err := regexp.Compile("^(?:" + q.Pattern + ")$")
			if err != nil || !re.MatchString(s) {
				errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "pattern_mismatch", Message: fmt.Sprintf("does not match pattern %q", q.Pattern)})
			}
		}
		if q.MinLen != nil && len(s) < *q.MinLen {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "min_len", Message: fmt.Sprintf("shorter than minimum length %d", *q.MinLen)})
		}
		if q.MaxLen != nil && len(s) > *q.MaxLen {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "max_len", Message: fmt.Sprintf("longer than maximum length %d", *q.MaxLen)})
		}

	case qaspec.TypeInteger:
		f, ok := asFloat(value)
		if !ok {
			return []ValidationError{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected an integer"}}
		}
		if f != float64(int64(f)) {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "not_an_integer", Message: "expected an integer value"})
		}
		errs = append(errs, rangeErrors(q, path, f)...)

	case qaspec.TypeNumber:
		f, ok := asFloat(value)
		if !ok {
			return []ValidationError{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected a number"}}
		}
		errs = append(errs, rangeErrors(q, path, f)...)

	case qaspec.TypeBoolean:
		if _, ok := value.(bool); !ok {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected a boolean"})
		}

	case qaspec.TypeEnum:
		s, ok := value.(string)
		if !ok || !contains(q.Enum, s) {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "enum_mismatch", Message: fmt.Sprintf("not a member of %v", q.Enum)})
		}

	case qaspec.TypeListRecord:
		items, ok := value.([]any)
		if !ok {
			return []ValidationError{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected a list"}}
		}
		if q.MinItems != nil && len(items) < *q.MinItems {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "min_items", Message: fmt.Sprintf("fewer than minimum %d items", *q.MinItems)})
		}
		if q.MaxItems != nil && len(items) > *q.MaxItems {
			errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "max_items", Message: fmt.Sprintf("more than maximum %d items", *q.MaxItems)})
		}
		for i, item := range items {
			record, ok := item.(map[string]any)
			if !ok {
				errs = append(errs, ValidationError{QuestionID: q.ID, Path: fmt.Sprintf("%s/%d", path, i), Code: "type_mismatch", Message: "expected a record object"})
				continue
			}
			for _, field := range q.Fields {
				fv, has := record[field.ID]
				fpath := fmt.Sprintf("%s/%d/%s", path, i, field.ID)
				if !has {
					if field.Required {
						errs = append(errs, ValidationError{QuestionID: q.ID, Path: fpath, Code: "missing_required", Message: "required record field is missing"})
					}
					continue
				}
				for _, e := range validateValue(field, fv) {
					e.Path = fpath
					errs = append(errs, e)
				}
			}
		}
	}

	return errs
}

func rangeErrors(q qaspec.QuestionSpec, path string, f float64) []ValidationError {
	var errs []ValidationError
	if q.Min != nil && f < *q.Min {
		errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "min", Message: fmt.Sprintf("below minimum %v", *q.Min)})
	}
	if q.Max != nil && f > *q.Max {
		errs = append(errs, ValidationError{QuestionID: q.ID, Path: path, Code: "max", Message: fmt.Sprintf("above maximum %v", *q.Max)})
	}
	return errs
}

func applyCrossFieldRules(spec *qaspec.FormSpec, answers any, visible map[string]bool, opts Options, result *Result) {
	for _, rule := range opts.CrossFieldRules {
		if opts.Mode == Patch && !ruleDependsOn(rule, opts.SubmittedQuestionID) {
			continue
		}
		if len(rule.AtLeastOneOf) > 0 {
			anyAnswered := false
			for _, id := range rule.AtLeastOneOf {
				if _, has := get(answers, id); has {
					anyAnswered = true
					break
				}
			}
			if !anyAnswered {
				result.addError(ValidationError{Path: "/" + rule.AtLeastOneOf[0], Code: "at_least_one_of", Message: rule.Message})
			}
			continue
		}

		required := rule.If == nil
		if rule.If != nil {
			ok, err := qaexpr.Evaluate(*rule.If, answers)
			if err == nil {
				if b, isBool := ok.(bool); isBool {
					required = b
				}
			}
		}
		if !required {
			continue
		}
		if !visible[rule.Then] {
			continue
		}
		if _, has := get(answers, rule.Then); !has {
			result.MissingRequired = append(result.MissingRequired, rule.Then)
			result.addError(ValidationError{QuestionID: rule.Then, Path: "/" + rule.Then, Code: "missing_required", Message: rule.Message})
		}
	}
}

func ruleDependsOn(rule qaspec.CrossFieldRule, questionID string) bool {
	if rule.Then == questionID {
		return true
	}
	for _, id := range rule.AtLeastOneOf {
		if id == questionID {
			return true
		}
	}
	return false
}

func checkUnknownFields(spec *qaspec.FormSpec, answers any, opts Options, result *Result) {
	m, ok := answers.(map[string]any)
	if !ok {
		return
	}
	known := make(map[string]bool, len(spec.Questions))
	for _, q := range spec.Questions {
		known[q.ID] = true
	}
	for key := range m {
		if known[key] {
			continue
		}
		result.UnknownFields = append(result.UnknownFields, key)
		if opts.UnknownFieldMode == Strict {
			result.addError(ValidationError{Path: "/" + key, Code: "unknown_field", Message: fmt.Sprintf("unrecognized field %q", key)})
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unrecognized field %q", key))
		}
	}
}

func get(answers any, questionID string) (any, bool) {
	v, err := qajsonptr.Get(answers, "/"+questionID)
	if err != nil {
		return nil, false
	}
	return v, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
