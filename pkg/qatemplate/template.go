// Package qatemplate implements the Handlebars-flavored string
// templating layer: {{helper arg...}} tokens resolved against a
// canonical {payload, state, config, answers, secrets} context, with
// strict/relaxed missing-key modes and policy-gated secret reads.
//
// No third-party template-engine library (Handlebars/Mustache/Liquid)
// exists anywhere in the retrieved example pack, so this is a small
// hand-written tokenizer and helper dispatcher, grounded stylistically
// on the teacher's own regex-based flat {{var}} interpolator.
package qatemplate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qajsonptr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
)

// Mode governs missing-key behavior.
type Mode string

const (
	// Strict makes a missing key a fatal error.
	Strict Mode = "strict"
	// Relaxed resolves a missing key to an empty string. The raw
	// {{...}} syntax is never left in rendered output.
	Relaxed Mode = "relaxed"
)

// ErrorCode enumerates the stable template error codes.
type ErrorCode string

const (
	ErrMissingKey          ErrorCode = "template_missing_key"
	ErrSecretAccessDenied  ErrorCode = "secret_access_denied"
	ErrBadHelperArgument   ErrorCode = "template_bad_argument"
)

// Error is a typed template resolution failure.
type Error struct {
	Code    ErrorCode
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
}

// Context is the canonical tree templates resolve paths against.
type Context struct {
	Payload any
	State   any
	Config  any
	Answers any
	Secrets any

	// SecretsPolicy, if non-nil, gates access to the Secrets tree.
	// HostAvailable reflects the normalized secrets_host_available
	// flag.
	SecretsPolicy *qasecrets.Policy
	HostAvailable bool
}

func (c Context) rootFor(segment string) (any, bool) {
	switch segment {
	case "payload":
		return c.Payload, true
	case "state":
		return c.State, true
	case "config":
		return c.Config, true
	case "answers":
		return c.Answers, true
	case "secrets":
		return c.Secrets, true
	default:
		return nil, false
	}
}

// ResolveValue resolves a QuestionSpec.Default-shaped value: a string
// is run through Resolve as a template, anything else (bool, number,
// already-structured JSON) passes through unchanged, since only
// strings can carry {{...}} tokens.
func ResolveValue(v any, ctx Context, mode Mode) (any, *Error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	resolved, err := Resolve(s, ctx, mode)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Resolve renders every {{...}} token in tmpl against ctx under mode.
func Resolve(tmpl string, ctx Context, mode Mode) (string, *Error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start < 0 {
			out.WriteString(tmpl[i:])
			break
		}
		out.WriteString(tmpl[i : i+start])
		rest := tmpl[i+start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			// Unterminated token: emit the rest literally rather than
			// silently dropping it.
			out.WriteString(tmpl[i+start:])
			break
		}
		expr := strings.TrimSpace(rest[:end])
		value, err := evalToken(expr, ctx)
		if err != nil {
			if err.Code == ErrMissingKey && mode == Relaxed {
				// resolve to empty string, never the raw token
			} else {
				return "", err
			}
		} else {
			out.WriteString(stringify(value))
		}
		i = i + start + 2 + end + 2
	}
	return out.String(), nil
}

func evalToken(expr string, ctx Context) (any, *Error) {
	tokens, terr := tokenize(expr)
	if terr != nil {
		return nil, &Error{Code: ErrBadHelperArgument, Message: terr.Error()}
	}
	if len(tokens) == 0 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "empty template expression"}
	}

	switch tokens[0] {
	case "get":
		return helperGet(tokens[1:], ctx)
	case "default":
		return helperDefault(tokens[1:], ctx)
	case "eq":
		return helperEq(tokens[1:], ctx)
	case "and":
		return helperAnd(tokens[1:], ctx)
	case "or":
		return helperOr(tokens[1:], ctx)
	case "not":
		return helperNot(tokens[1:], ctx)
	case "len":
		return helperLen(tokens[1:], ctx)
	case "json":
		return helperJSON(tokens[1:], ctx)
	default:
		// Bare {{path}} shorthand, equivalent to {{get path}}.
		return helperGet(tokens, ctx)
	}
}

func helperGet(args []string, ctx Context) (any, *Error) {
	if len(args) == 0 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "get requires a path argument"}
	}
	path := args[0]
	v, found, err := resolvePath(path, ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return v, nil
	}
	if len(args) > 1 {
		return resolveArg(args[1], ctx)
	}
	return nil, &Error{Code: ErrMissingKey, Path: path, Message: "missing key"}
}

func helperDefault(args []string, ctx Context) (any, *Error) {
	if len(args) != 2 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "default requires two arguments"}
	}
	a, err := resolveArg(args[0], ctx)
	if err == nil && !isEmpty(a) {
		return a, nil
	}
	return resolveArg(args[1], ctx)
}

func helperEq(args []string, ctx Context) (any, *Error) {
	if len(args) != 2 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "eq requires two arguments"}
	}
	a, err := resolveArg(args[0], ctx)
	if err != nil {
		return nil, err
	}
	b, err := resolveArg(args[1], ctx)
	if err != nil {
		return nil, err
	}
	return fmt.Sprint(a) == fmt.Sprint(b), nil
}

func helperAnd(args []string, ctx Context) (any, *Error) {
	for _, a := range args {
		v, err := resolveArg(a, ctx)
		if err != nil {
			return nil, err
		}
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func helperOr(args []string, ctx Context) (any, *Error) {
	for _, a := range args {
		v, err := resolveArg(a, ctx)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func helperNot(args []string, ctx Context) (any, *Error) {
	if len(args) != 1 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "not requires one argument"}
	}
	v, err := resolveArg(args[0], ctx)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

func helperLen(args []string, ctx Context) (any, *Error) {
	if len(args) != 1 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "len requires one argument"}
	}
	v, err := resolveArg(args[0], ctx)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return float64(len(t)), nil
	case []any:
		return float64(len(t)), nil
	case map[string]any:
		return float64(len(t)), nil
	default:
		return float64(0), nil
	}
}

func helperJSON(args []string, ctx Context) (any, *Error) {
	if len(args) != 1 {
		return nil, &Error{Code: ErrBadHelperArgument, Message: "json requires one argument"}
	}
	v, err := resolveArg(args[0], ctx)
	if err != nil {
		return nil, err
	}
	b, jerr := json.Marshal(v)
	if jerr != nil {
		return nil, &Error{Code: ErrBadHelperArgument, Message: jerr.Error()}
	}
	return string(b), nil
}

// resolveArg resolves one helper argument token: a quoted literal, a
// JSON scalar literal, or a path.
func resolveArg(tok string, ctx Context) (any, *Error) {
	if lit, ok := parseLiteral(tok); ok {
		return lit, nil
	}
	v, found, err := resolvePath(tok, ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return v, nil
}

func parseLiteral(tok string) (any, bool) {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return tok[1 : len(tok)-1], true
	}
	switch tok {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, true
	}
	return nil, false
}

// resolvePath resolves a dotted path like "answers.name" against ctx,
// returning (value, found, error). A secrets.* path is gated by
// ctx.SecretsPolicy before the tree is even read.
func resolvePath(path string, ctx Context) (any, bool, *Error) {
	segments := strings.Split(path, ".")
	root, ok := ctx.rootFor(segments[0])
	if !ok {
		return nil, false, &Error{Code: ErrMissingKey, Path: path, Message: "unknown root segment"}
	}

	if segments[0] == "secrets" {
		if ctx.SecretsPolicy == nil {
			return nil, false, &Error{Code: ErrSecretAccessDenied, Path: path, Message: "secrets access denied"}
		}
		key := strings.Join(segments[1:], ".")
		if err := ctx.SecretsPolicy.MayRead(key, ctx.HostAvailable); err != nil {
			return nil, false, &Error{Code: ErrorCode(err.Code), Path: path, Message: "secret access denied"}
		}
	}

	pointer := "/" + strings.Join(segments[1:], "/")
	if len(segments) == 1 {
		return root, true, nil
	}
	v, getErr := qajsonptr.Get(root, pointer)
	if getErr != nil {
		return nil, false, nil
	}
	return v, true, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// tokenize splits a helper expression into whitespace-separated
// tokens, respecting double-quoted string arguments.
func tokenize(expr string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted argument in %q", expr)
	}
	flush()
	return tokens, nil
}
