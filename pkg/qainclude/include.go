// Package qainclude implements deterministic depth-first expansion of
// FormSpec include composition, with cycle detection via a path stack.
package qainclude

import (
	"fmt"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// ErrorCode enumerates the stable include-resolution error codes.
type ErrorCode string

const (
	ErrIncludeCycleDetected ErrorCode = "include_cycle_detected"
	ErrIncludeMissing       ErrorCode = "include_missing"
)

// Error is a typed include resolution failure.
type Error struct {
	Code    ErrorCode
	FormRef string
	Chain   []string
}

func (e *Error) Error() string {
	if len(e.Chain) > 0 {
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.FormRef)
}

// Registry maps a form_ref to the sub-FormSpec it names.
type Registry map[string]*qaspec.FormSpec

// Resolve expands root's include list (and, transitively, every
// included spec's own include list) depth-first, preserving
// declaration order, returning a single flattened FormSpec with the
// combined, ordered question sequence. root.Include and root.Store are
// prepended/appended around included content only by order of
// appearance in root.Questions/root.Store relative to Include markers
// is not modeled; includes contribute their full question sequence
// ahead of the including spec's own directly-declared questions, per
// declaration order of the Include list itself.
func Resolve(root *qaspec.FormSpec, registry Registry) (*qaspec.FormSpec, error) {
	expanded := &qaspec.FormSpec{
		ID:             root.ID,
		Title:          root.Title,
		Version:        root.Version,
		Description:    root.Description,
		Intro:          root.Intro,
		ProgressPolicy: root.ProgressPolicy,
		SecretsPolicy:  root.SecretsPolicy,
		DefaultLocale:  root.DefaultLocale,
	}

	chain := []string{root.ID}
	var questions []qaspec.QuestionSpec
	var store []qaspec.StoreOp

	if err := expand(root, registry, chain, &questions, &store); err != nil {
		return nil, err
	}

	expanded.Questions = questions
	expanded.Store = store

	// Id uniqueness is re-validated across the flattened sequence,
	// since two independently valid specs can still collide once
	// merged.
	if dup := qaspec.ValidateFormSpec(expanded); !dup.Valid() {
		return nil, fmt.Errorf("qainclude: %s", dup.Errors[0].Error())
	}

	return expanded, nil
}

func expand(spec *qaspec.FormSpec, registry Registry, chain []string, questions *[]qaspec.QuestionSpec, store *[]qaspec.StoreOp) *Error {
	for _, ref := range spec.Include {
		for _, seen := range chain {
			if seen == ref {
				return &Error{Code: ErrIncludeCycleDetected, Chain: append(append([]string{}, chain...), ref)}
			}
		}
		sub, ok := registry[ref]
		if !ok {
			return &Error{Code: ErrIncludeMissing, FormRef: ref}
		}
		if err := expand(sub, registry, append(chain, ref), questions, store); err != nil {
			return err
		}
	}
	*questions = append(*questions, spec.Questions...)
	*store = append(*store, spec.Store...)
	return nil
}
