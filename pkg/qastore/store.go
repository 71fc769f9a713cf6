// Package qastore translates a FormSpec's store[] mappings into an
// ordered list of resolved JSON-pointer operations against the four
// addressable targets (plus secret writes), run against a
// post-submission context. Operations are atomic as a batch: on any
// failure, none are returned.
package qastore

import (
	"fmt"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qatemplate"
)

// Op is one resolved store operation, ready to become a Plan effect.
type Op struct {
	Target qaspec.StoreTarget
	Path   string
	Value  any
}

// Error is a typed batch failure. No operations are ever partially
// applied: Resolve either returns the full ordered list or an Error.
type Error struct {
	Code    string
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
}

// Resolve computes the ordered operation list for ops against ctx.
// Template values are resolved against ctx in strict mode: a store
// mapping that references a missing key is a batch failure, not a
// silently-emitted partial write.
func Resolve(ops []qaspec.StoreOp, ctx qatemplate.Context, secretsPolicy qasecrets.Policy, hostAvailable bool) ([]Op, *Error) {
	resolved := make([]Op, 0, len(ops))

	for _, op := range ops {
		value := op.Value
		if op.IsTemplate {
			tmpl, ok := op.Value.(string)
			if !ok {
				return nil, &Error{Code: "invalid_patch", Path: op.Path, Message: "templated store value must be a string"}
			}
			out, terr := qatemplate.Resolve(tmpl, ctx, qatemplate.Strict)
			if terr != nil {
				return nil, &Error{Code: string(terr.Code), Path: op.Path, Message: terr.Message}
			}
			value = out
		}

		if op.Target == qaspec.TargetSecrets {
			if err := secretsPolicy.MayWrite(pointerToDotted(op.Path), hostAvailable); err != nil {
				return nil, &Error{Code: string(err.Code), Path: op.Path, Message: "secret write denied"}
			}
		}

		resolved = append(resolved, Op{Target: op.Target, Path: op.Path, Value: value})
	}

	return resolved, nil
}

// pointerToDotted converts a JSON pointer ("/api/key") into the
// dot-segmented form qasecrets globs match against ("api.key").
func pointerToDotted(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(trimmed, "/", ".")
}
