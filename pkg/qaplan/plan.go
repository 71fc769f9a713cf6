// Package qaplan implements the plan/execute boundary: pure planners
// that produce a canonical Plan (validated patch + deferred effects +
// next step), and a separate Executor that is the only component
// allowed to mutate an AnswerSet.
package qaplan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/BimaPangestu28/greentic-qa/pkg/qavalidate"
)

// Context is the canonical {payload, state, config, answers, secrets?}
// bundle consumed by templates, expressions, and storage mapping.
type Context struct {
	Payload any
	State   any
	Config  any
	Secrets any

	SecretsHostAvailable bool
	Locale               string
	I18nDebug            bool
}

// EffectKind enumerates the typed deferred mutations a Plan may carry.
type EffectKind string

const (
	EffectSetAnswer         EffectKind = "set_answer"
	EffectSetStatePath      EffectKind = "set_state_path"
	EffectSetConfigPath     EffectKind = "set_config_path"
	EffectSetPayloadOutPath EffectKind = "set_payload_out_path"
	EffectWriteSecret       EffectKind = "write_secret"
)

// Effect is a typed deferred mutation within a Plan.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	Path  string     `json:"path"`
	Value any        `json:"value,omitempty"`
}

// PatchOp is one JSON Patch-shaped operation against the answers tree.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Mode enumerates the planning entry point that produced a Plan.
type Mode string

const (
	ModeNext        Mode = "next"
	ModeSubmitPatch Mode = "submit_patch"
	ModeSubmitAll   Mode = "submit_all"
)

// Plan is the canonical, versioned, side-effect-free description of
// intended mutations and the next step. A Plan is data; it is never
// executed by the planner that produced it.
type Plan struct {
	PlanVersion    int                           `json:"plan_version"`
	FormID         string                        `json:"form_id"`
	Mode           Mode                          `json:"mode"`
	StateToken     string                        `json:"state_token"`
	ValidatedPatch []PatchOp                     `json:"validated_patch"`
	Effects        []Effect                      `json:"effects"`
	NextQuestionID string                        `json:"next_question_id,omitempty"`
	Warnings       []string                      `json:"warnings,omitempty"`
	Errors         []qavalidate.ValidationError  `json:"errors,omitempty"`
}

// StateToken computes an opaque hash of (form_id, spec_version,
// canonical(answers)) used by hosts to detect stale submissions.
// encoding/json already emits map keys in sorted order, which is the
// canonicalization this token relies on.
func StateToken(formID, specVersion string, answers any) string {
	canonical, err := json.Marshal(answers)
	if err != nil {
		canonical = []byte("null")
	}
	h := sha256.New()
	h.Write([]byte(formID))
	h.Write([]byte{0})
	h.Write([]byte(specVersion))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}
