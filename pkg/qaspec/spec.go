// Package qaspec implements the spec data model: FormSpec, QuestionSpec,
// QAFlowSpec and their constraints. Types carry both JSON tags (the wire
// format) and stable field names matching how the rest of the engine
// addresses them.
package qaspec

import (
	"encoding/json"
	"fmt"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
)

// QuestionType enumerates the supported QuestionSpec.Type values.
type QuestionType string

const (
	TypeString     QuestionType = "string"
	TypeInteger    QuestionType = "integer"
	TypeNumber     QuestionType = "number"
	TypeBoolean    QuestionType = "boolean"
	TypeEnum       QuestionType = "enum"
	TypeListRecord QuestionType = "list<record>"
)

// QuestionSpec describes one question in a FormSpec.
type QuestionSpec struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required,omitempty"`

	Pattern  string `json:"pattern,omitempty"`
	MinLen   *int   `json:"min_len,omitempty"`
	MaxLen   *int   `json:"max_len,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	MinItems *int     `json:"min_items,omitempty"`
	MaxItems *int     `json:"max_items,omitempty"`
	// Fields describes the nested record shape for TypeListRecord items.
	Fields []QuestionSpec `json:"fields,omitempty"`

	// Default is a templated or literal default value, resolved at
	// render/plan time against the running context.
	Default any `json:"default,omitempty"`

	Secret bool `json:"secret,omitempty"`

	VisibleIf *qaexpr.Expr `json:"visible_if,omitempty"`
	Computed  *qaexpr.Expr `json:"computed,omitempty"`

	TitleI18n       map[string]string `json:"title_i18n,omitempty"`
	DescriptionI18n map[string]string `json:"description_i18n,omitempty"`
}

// ProgressPolicy controls how the progress engine treats already-satisfied
// questions.
type ProgressPolicy struct {
	SkipAnswered           bool                `json:"skip_answered,omitempty"`
	AutofillDefaults       bool                `json:"autofill_defaults,omitempty"`
	TreatDefaultAsAnswered bool                `json:"treat_default_as_answered,omitempty"`
	SkipIfPresentIn        map[string][]string `json:"skip_if_present_in,omitempty"`
	EditableIfFromDefault  map[string]bool     `json:"editable_if_from_default,omitempty"`
}

// SkipTargets returns the configured skip-if-present-in targets for a
// question id, or nil if none are configured.
func (p ProgressPolicy) SkipTargets(questionID string) []string {
	if p.SkipIfPresentIn == nil {
		return nil
	}
	return p.SkipIfPresentIn[questionID]
}

// SecretsPolicy controls whether and how secrets may be read or written.
type SecretsPolicy struct {
	Enabled      bool     `json:"enabled,omitempty"`
	ReadEnabled  bool     `json:"read_enabled,omitempty"`
	WriteEnabled bool     `json:"write_enabled,omitempty"`
	Allow        []string `json:"allow,omitempty"`
	Deny         []string `json:"deny,omitempty"`
}

// StoreTarget enumerates where a StoreOp writes.
type StoreTarget string

const (
	TargetAnswers    StoreTarget = "answers"
	TargetState      StoreTarget = "state"
	TargetConfig     StoreTarget = "config"
	TargetPayloadOut StoreTarget = "payload_out"
	// TargetSecrets produces a WriteSecret effect rather than a direct
	// patch; it exists because the Plan's effect vocabulary names
	// WriteSecret explicitly even though the narrower StoreOp target
	// enumeration does not. See the Open Question resolution in
	// DESIGN.md.
	TargetSecrets StoreTarget = "secrets"
)

// StoreOp maps a value into one of the four addressable targets.
type StoreOp struct {
	Target StoreTarget `json:"target"`
	Path   string      `json:"path"`
	// Value is a literal JSON value when IsTemplate is false, or a
	// template string (to be resolved via qatemplate) when true.
	Value      any  `json:"value"`
	IsTemplate bool `json:"is_template,omitempty"`
}

// CrossFieldRule is a declarative rule evaluated against the full
// answer set: either "if If then Then is required" (If nil means
// unconditionally required) or "at least one of AtLeastOneOf must be
// answered".
type CrossFieldRule struct {
	If           *qaexpr.Expr `json:"if,omitempty"`
	Then         string       `json:"then,omitempty"`
	AtLeastOneOf []string     `json:"at_least_one_of,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// FormSpec is the top-level declarative questionnaire description.
type FormSpec struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Intro       string `json:"intro,omitempty"`

	ProgressPolicy  ProgressPolicy   `json:"progress_policy,omitempty"`
	SecretsPolicy   SecretsPolicy    `json:"secrets_policy,omitempty"`
	CrossFieldRules []CrossFieldRule `json:"cross_field_rules,omitempty"`

	Questions []QuestionSpec `json:"questions"`
	Store     []StoreOp      `json:"store,omitempty"`

	// Include lists sub-FormSpec references to be expanded in place,
	// in declaration order, before any other component observes the
	// spec's question sequence.
	Include []string `json:"include,omitempty"`

	DefaultLocale string `json:"default_locale,omitempty"`
}

// QuestionByID returns the question with the given id and whether it
// was found.
func (f *FormSpec) QuestionByID(id string) (*QuestionSpec, bool) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], true
		}
	}
	return nil, false
}

// StepID identifies a step within a QAFlowSpec.
type StepID string

// StepKind discriminates StepSpec variants.
type StepKind string

const (
	StepMessage  StepKind = "message"
	StepQuestion StepKind = "question"
	StepDecision StepKind = "decision"
	StepAction   StepKind = "action"
	StepEnd      StepKind = "end"
)

// EndStep is the distinguished terminal step id every flow must be able
// to reach.
const EndStep StepID = "end"

// MessageMode enumerates how a message step's template is rendered.
type MessageMode string

const (
	MessageText MessageMode = "text"
	MessageJSON MessageMode = "json"
	MessageCard MessageMode = "card"
)

// DecisionCase is one branch of a decision step.
type DecisionCase struct {
	When qaexpr.Expr `json:"when"`
	Goto StepID      `json:"goto"`
}

// StepSpec is a tagged variant over the five QAFlowSpec step kinds.
type StepSpec struct {
	Kind StepKind `json:"kind"`

	// StepMessage
	Mode     MessageMode `json:"mode,omitempty"`
	Template string      `json:"template,omitempty"`

	// StepMessage, StepQuestion
	Next StepID `json:"next,omitempty"`

	// StepQuestion
	QuestionID string `json:"question_id,omitempty"`

	// StepDecision
	Cases       []DecisionCase `json:"cases,omitempty"`
	DefaultGoto StepID         `json:"default_goto,omitempty"`

	// StepAction — opaque externally-executed effect; the engine treats
	// this as a pass-through placeholder and never interprets Payload.
	Payload json.RawMessage `json:"payload,omitempty"`
}

type rawStepSpec struct {
	Kind        StepKind        `json:"kind"`
	Mode        MessageMode     `json:"mode,omitempty"`
	Template    string          `json:"template,omitempty"`
	Next        StepID          `json:"next,omitempty"`
	QuestionID  string          `json:"question_id,omitempty"`
	Cases       []DecisionCase  `json:"cases,omitempty"`
	DefaultGoto StepID          `json:"default_goto,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// UnmarshalJSON validates the tagged variant shape at decode time.
func (s *StepSpec) UnmarshalJSON(data []byte) error {
	var raw rawStepSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case StepMessage:
		if raw.Template == "" {
			return fmt.Errorf("qaspec: message step requires \"template\"")
		}
	case StepQuestion:
		if raw.QuestionID == "" {
			return fmt.Errorf("qaspec: question step requires \"question_id\"")
		}
	case StepDecision:
		if len(raw.Cases) == 0 {
			return fmt.Errorf("qaspec: decision step requires at least one case")
		}
	case StepAction, StepEnd:
		// no required fields
	case "":
		return fmt.Errorf("qaspec: step missing \"kind\"")
	default:
		return fmt.Errorf("qaspec: unknown step kind %q", raw.Kind)
	}
	*s = StepSpec{
		Kind:        raw.Kind,
		Mode:        raw.Mode,
		Template:    raw.Template,
		Next:        raw.Next,
		QuestionID:  raw.QuestionID,
		Cases:       raw.Cases,
		DefaultGoto: raw.DefaultGoto,
		Payload:     raw.Payload,
	}
	return nil
}

// QAFlowSpec is the graph-shaped wizard composition built from typed steps.
type QAFlowSpec struct {
	Entry StepID              `json:"entry"`
	Steps map[StepID]StepSpec `json:"steps"`
}
