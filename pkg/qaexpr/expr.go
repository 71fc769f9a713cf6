// Package qaexpr implements the boolean expression grammar used by
// visible_if and decision steps: a recursive tagged variant evaluated by a
// dedicated interpreter, never string eval, never reflection over Go values.
package qaexpr

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the Expr variants. Serialization uses external tagging
// (a "kind" field) rather than an enum-in-struct for stability across spec
// revisions.
type Kind string

const (
	KindAnd    Kind = "and"
	KindOr     Kind = "or"
	KindNot    Kind = "not"
	KindEq     Kind = "eq"
	KindNe     Kind = "ne"
	KindLt     Kind = "lt"
	KindLe     Kind = "le"
	KindGt     Kind = "gt"
	KindGe     Kind = "ge"
	KindLit    Kind = "lit"
	KindAnswer Kind = "answer"
	KindIsSet  Kind = "is_set"
)

// Expr is a recursive tagged variant. Exactly the fields relevant to Kind
// are populated; the zero value of the others is ignored.
type Expr struct {
	Kind Kind `json:"kind"`

	// KindAnd, KindOr
	Args []Expr `json:"args,omitempty"`

	// KindNot
	Arg *Expr `json:"arg,omitempty"`

	// KindEq, KindNe, KindLt, KindLe, KindGt, KindGe
	Left  *Expr `json:"left,omitempty"`
	Right *Expr `json:"right,omitempty"`

	// KindLit
	Value any `json:"value,omitempty"`

	// KindAnswer, KindIsSet — a dotted or slash-free path such as "id" or
	// "section.id", resolved against the answers tree.
	Path string `json:"path,omitempty"`
}

// rawExpr mirrors Expr's JSON shape for decode-time validation; it exists
// only so UnmarshalJSON can reject structurally invalid variants instead of
// silently accepting e.g. an "eq" with no operands.
type rawExpr struct {
	Kind  Kind            `json:"kind"`
	Args  []Expr          `json:"args,omitempty"`
	Arg   *Expr           `json:"arg,omitempty"`
	Left  *Expr           `json:"left,omitempty"`
	Right *Expr           `json:"right,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Path  string          `json:"path,omitempty"`
}

// UnmarshalJSON validates the tagged variant shape at decode time so malformed
// expressions fail on spec load rather than deep inside evaluation.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var raw rawExpr
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case KindAnd, KindOr:
		if len(raw.Args) == 0 {
			return fmt.Errorf("qaexpr: %q requires at least one argument", raw.Kind)
		}
	case KindNot:
		if raw.Arg == nil {
			return fmt.Errorf("qaexpr: %q requires \"arg\"", raw.Kind)
		}
	case KindEq, KindNe, KindLt, KindLe, KindGt, KindGe:
		if raw.Left == nil || raw.Right == nil {
			return fmt.Errorf("qaexpr: %q requires \"left\" and \"right\"", raw.Kind)
		}
	case KindLit:
		if len(raw.Value) > 0 {
			var v any
			if err := json.Unmarshal(raw.Value, &v); err != nil {
				return fmt.Errorf("qaexpr: invalid literal value: %w", err)
			}
			e.Value = v
		}
	case KindAnswer, KindIsSet:
		if raw.Path == "" {
			return fmt.Errorf("qaexpr: %q requires \"path\"", raw.Kind)
		}
	case "":
		return fmt.Errorf("qaexpr: missing \"kind\"")
	default:
		return fmt.Errorf("qaexpr: unknown expression kind %q", raw.Kind)
	}

	e.Kind = raw.Kind
	e.Args = raw.Args
	e.Arg = raw.Arg
	e.Left = raw.Left
	e.Right = raw.Right
	e.Path = raw.Path
	return nil
}

// And builds an "and" expression.
func And(args ...Expr) Expr { return Expr{Kind: KindAnd, Args: args} }

// Or builds an "or" expression.
func Or(args ...Expr) Expr { return Expr{Kind: KindOr, Args: args} }

// Not builds a "not" expression.
func Not(arg Expr) Expr { return Expr{Kind: KindNot, Arg: &arg} }

// Cmp builds a binary comparison expression.
func Cmp(kind Kind, left, right Expr) Expr { return Expr{Kind: kind, Left: &left, Right: &right} }

// Lit builds a literal expression.
func Lit(v any) Expr { return Expr{Kind: KindLit, Value: v} }

// Answer builds an answer-path read expression.
func Answer(path string) Expr { return Expr{Kind: KindAnswer, Path: path} }

// IsSet builds an existence-check expression.
func IsSet(path string) Expr { return Expr{Kind: KindIsSet, Path: path} }
