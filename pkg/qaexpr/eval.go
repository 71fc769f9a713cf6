package qaexpr

import (
	"fmt"

	"github.com/BimaPangestu28/greentic-qa/pkg/qajsonptr"
)

// ErrorCode enumerates the stable error codes an expression evaluation can
// fail with. Codes are strings, not exceptions-by-type, so hosts across a
// serialization boundary can match on them.
type ErrorCode string

const (
	ErrUnknownKind    ErrorCode = "expr_unknown_kind"
	ErrTypeMismatch   ErrorCode = "expr_type_mismatch"
	ErrInvalidLiteral ErrorCode = "expr_invalid_literal"
)

// Error is a typed, total evaluation failure. It is never a panic: every
// subexpression either returns a value or an *Error.
type Error struct {
	Code    ErrorCode
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// VisibilityMode governs how a visible_if that resolves indeterminately
// (a literal null where a boolean was required) is treated. The chosen
// mode is an explicit input to evaluation, never a compile-time switch.
type VisibilityMode string

const (
	// VisibilityVisible treats indeterminate visibility as visible. This is
	// the default for interactive flows.
	VisibilityVisible VisibilityMode = "visible"
	// VisibilityHidden treats indeterminate visibility as hidden.
	VisibilityHidden VisibilityMode = "hidden"
	// VisibilityError surfaces indeterminate visibility as a typed error.
	// Intended default for validation-only flows; see the open question in
	// the design notes about per-call-site selection.
	VisibilityError VisibilityMode = "error"
)

// Answers is the minimal read surface an evaluator needs over the answers
// tree: plain JSON pointer-addressable paths, dotted for readability in
// visible_if authoring (qaexpr translates "a.b" to "/a/b" internally).
type Answers = any

// Evaluate is the total, pure evaluator: every node returns a JSON-ish value
// (bool, string, float64, nil, or nested structures for literals) or an
// *Error. No side effects, no external calls.
func Evaluate(e Expr, answers Answers) (any, *Error) {
	switch e.Kind {
	case KindLit:
		return e.Value, nil

	case KindAnswer:
		// A missing path reads as null, never a typed error.
		v, err := qajsonptr.Get(answers, dottedToPointer(e.Path))
		if err != nil {
			return nil, nil
		}
		return v, nil

	case KindIsSet:
		return qajsonptr.Has(answers, dottedToPointer(e.Path)), nil

	case KindNot:
		v, err := Evaluate(*e.Arg, answers)
		if err != nil {
			return nil, err
		}
		b, ok := asBool(v)
		if !ok {
			return nil, &Error{Code: ErrTypeMismatch, Message: "not: operand is not boolean"}
		}
		return !b, nil

	case KindAnd:
		for _, arg := range e.Args {
			v, err := Evaluate(arg, answers)
			if err != nil {
				return nil, err
			}
			b, ok := asBool(v)
			if !ok {
				return nil, &Error{Code: ErrTypeMismatch, Message: "and: operand is not boolean"}
			}
			if !b {
				return false, nil
			}
		}
		return true, nil

	case KindOr:
		for _, arg := range e.Args {
			v, err := Evaluate(arg, answers)
			if err != nil {
				return nil, err
			}
			b, ok := asBool(v)
			if !ok {
				return nil, &Error{Code: ErrTypeMismatch, Message: "or: operand is not boolean"}
			}
			if b {
				return true, nil
			}
		}
		return false, nil

	case KindEq, KindNe, KindLt, KindLe, KindGt, KindGe:
		left, err := Evaluate(*e.Left, answers)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(*e.Right, answers)
		if err != nil {
			return nil, err
		}
		return compare(e.Kind, left, right)

	default:
		return nil, &Error{Code: ErrUnknownKind, Message: fmt.Sprintf("unknown expression kind %q", e.Kind)}
	}
}

// compare implements the comparison family. Per the grammar: both sides
// must share a primitive type, or one side must be null, else the
// comparison is simply false (never an error) — literal type confusion is
// not a spec-authoring error by itself.
func compare(kind Kind, left, right any) (any, *Error) {
	eq := valuesEqual(left, right)
	switch kind {
	case KindEq:
		return eq, nil
	case KindNe:
		return !eq, nil
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		// Ordering comparisons against a non-numeric or null operand never
		// hold; they are not type errors.
		return false, nil
	}
	switch kind {
	case KindLt:
		return lf < rf, nil
	case KindLe:
		return lf <= rf, nil
	case KindGt:
		return lf > rf, nil
	case KindGe:
		return lf >= rf, nil
	}
	return false, &Error{Code: ErrUnknownKind, Message: fmt.Sprintf("unknown comparison kind %q", kind)}
}

func valuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		return lf == rf
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return ls == rs
	}
	lb, lok := left.(bool)
	rb, rok := right.(bool)
	if lok && rok {
		return lb == rb
	}
	return false
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
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

// ResolveVisible evaluates a question's visible_if (nil means "no
// visible_if declared", which is always visible regardless of mode) and
// folds an indeterminate boolean result (the expression evaluated to a
// literal null) through VisibilityMode.
func ResolveVisible(visibleIf *Expr, answers Answers, mode VisibilityMode) (bool, *Error) {
	if visibleIf == nil {
		return true, nil
	}

	v, err := Evaluate(*visibleIf, answers)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if ok {
		return b, nil
	}

	if v != nil {
		return false, &Error{Code: ErrTypeMismatch, Message: "visible_if did not evaluate to a boolean"}
	}

	switch mode {
	case VisibilityHidden:
		return false, nil
	case VisibilityError:
		return false, &Error{Code: ErrTypeMismatch, Message: "visible_if resolved indeterminately under visibility_on_missing=error"}
	default:
		return true, nil
	}
}

// dottedToPointer translates the author-facing dotted path syntax used in
// answer()/is_set() ("section.id") into a JSON pointer ("/section/id").
func dottedToPointer(path string) string {
	if path == "" {
		return ""
	}
	out := make([]byte, 0, len(path)+1)
	out = append(out, '/')
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, '/')
		} else {
			out = append(out, path[i])
		}
	}
	return string(out)
}
