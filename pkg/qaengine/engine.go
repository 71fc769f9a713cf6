// Package qaengine is the façade: it owns loaded forms and exposes
// the full external API surface (get_form_spec, get_answer_schema,
// get_example_answers, validate_answers, plan_next, plan_submit_patch,
// plan_submit_all, apply_store, render) plus legacy submit_patch/
// submit_all compatibility wrappers. An Engine is a handle, not a
// global: callers create one with New and pass it explicitly.
package qaengine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BimaPangestu28/greentic-qa/pkg/qabundle"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qainclude"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaplan"
	"github.com/BimaPangestu28/greentic-qa/pkg/qarender"
	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastore"
	"github.com/BimaPangestu28/greentic-qa/pkg/qatemplate"
	"github.com/BimaPangestu28/greentic-qa/pkg/qavalidate"
)

// EventPublisher is the interface qaengine uses to emit lifecycle
// events. Defined here rather than in qaevents so qaengine never
// depends on the event bus package directly, mirroring the teacher's
// own pkg/context.EventPublisher split from pkg/events.
type EventPublisher interface {
	PublishQAEvent(eventType, formID string, data any, duration time.Duration)
}

// Warning mirrors qaspec.Warning for load-time unknown-key reporting.
type Warning = qaspec.Warning

// ErrorCode enumerates the stable, host-facing engine error codes.
type ErrorCode string

const (
	ErrUnknownForm     ErrorCode = "unknown_form"
	ErrUnknownQuestion ErrorCode = "unknown_question"
	ErrInvalidPatch    ErrorCode = "invalid_patch"
	ErrPlanStale       ErrorCode = "plan_stale"
)

// Error is a typed, stable-coded engine failure.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// loadedForm is what an Engine holds after accepting either config
// envelope shape: the spec as loaded and its include-expanded form.
type loadedForm struct {
	raw      *qaspec.FormSpec
	expanded *qaspec.FormSpec
}

// Engine owns loaded forms and the include-expanded spec each
// produces. It carries no goroutines, no channels,
// and no package-level mutable state — every Engine method call is
// synchronous and single-threaded by contract.
type Engine struct {
	forms   map[string]*loadedForm
	events  EventPublisher
	secrets SecretWriter
}

// New creates an empty Engine.
func New() *Engine {
	return &Engine{forms: map[string]*loadedForm{}}
}

// SetEventPublisher attaches an event publisher. Passing nil disables
// event emission; the engine's pure operations are unaffected either
// way since publishing only happens after a result is already computed.
func (e *Engine) SetEventPublisher(p EventPublisher) {
	e.events = p
}

func (e *Engine) publish(eventType, formID string, data any, duration time.Duration) {
	if e.events != nil {
		e.events.PublishQAEvent(eventType, formID, data, duration)
	}
}

// LoadForm accepts either a raw FormSpec JSON document (legacy) or the
// {form_spec_json, include_registry?} wrapper, expands any includes,
// and registers the result under its form id. Unknown top-level keys
// in the config envelope produce a Warning, never a silent drop.
func (e *Engine) LoadForm(configEnvelope json.RawMessage) (string, []Warning, error) {
	spec, registry, warnings, err := qaspec.LoadForm(configEnvelope)
	if err != nil {
		return "", nil, fmt.Errorf("qaengine: loading form: %w", err)
	}

	expanded, err := qainclude.Resolve(spec, registry)
	if err != nil {
		return "", warnings, fmt.Errorf("qaengine: expanding includes: %w", err)
	}

	e.forms[spec.ID] = &loadedForm{raw: spec, expanded: expanded}
	e.publish("qa.form.loaded", spec.ID, map[string]any{"question_count": len(expanded.Questions)}, 0)
	return spec.ID, warnings, nil
}

func (e *Engine) get(formID string) (*loadedForm, error) {
	f, ok := e.forms[formID]
	if !ok {
		return nil, &Error{Code: ErrUnknownForm, Message: formID}
	}
	return f, nil
}

// GetFormSpec returns the canonical JSON of the expanded spec for
// formID.
func (e *Engine) GetFormSpec(formID string) (json.RawMessage, error) {
	f, err := e.get(formID)
	if err != nil {
		return nil, err
	}
	raw, merr := json.Marshal(f.expanded)
	if merr != nil {
		return nil, fmt.Errorf("qaengine: marshaling form spec: %w", merr)
	}
	return raw, nil
}

func (e *Engine) visibility(spec *qaspec.FormSpec, answers map[string]any, mode qaexpr.VisibilityMode) map[string]bool {
	visible := map[string]bool{}
	for _, q := range spec.Questions {
		v, _ := qaexpr.ResolveVisible(q.VisibleIf, answers, mode)
		visible[q.ID] = v
	}
	return visible
}

// GetAnswerSchema returns the JSON-Schema-shaped description of the
// answers object formID currently accepts, given ctx's effect on
// question visibility.
func (e *Engine) GetAnswerSchema(formID string, ctxEnvelope json.RawMessage) (map[string]any, error) {
	f, err := e.get(formID)
	if err != nil {
		return nil, err
	}
	rc, err := parseRuntimeContext(ctxEnvelope)
	if err != nil {
		return nil, fmt.Errorf("qaengine: parsing context envelope: %w", err)
	}
	answers, _ := rc.Payload.(map[string]any)
	visible := e.visibility(f.expanded, answers, qaexpr.VisibilityVisible)
	return qaspec.GenerateAnswerSchema(f.expanded, visible), nil
}

// GetExampleAnswers returns a representative answer set for formID.
func (e *Engine) GetExampleAnswers(formID string, ctxEnvelope json.RawMessage) (map[string]any, error) {
	f, err := e.get(formID)
	if err != nil {
		return nil, err
	}
	rc, err := parseRuntimeContext(ctxEnvelope)
	if err != nil {
		return nil, fmt.Errorf("qaengine: parsing context envelope: %w", err)
	}
	answers, _ := rc.Payload.(map[string]any)
	visible := e.visibility(f.expanded, answers, qaexpr.VisibilityVisible)
	return qaspec.GenerateExampleAnswers(f.expanded, visible), nil
}

// ValidateAnswers runs full-set validation against formID's cross-field
// rules and per-question constraints. Indeterminate visibility resolves
// to an error here, since validation is not an interactive flow and
// should surface an authoring mistake rather than silently guess.
func (e *Engine) ValidateAnswers(formID string, ctxEnvelope json.RawMessage, answers map[string]any) (qavalidate.Result, error) {
	f, err := e.get(formID)
	if err != nil {
		return qavalidate.Result{}, err
	}
	result := qavalidate.Validate(f.expanded, answers, qavalidate.Options{
		Mode:             qavalidate.All,
		UnknownFieldMode: qavalidate.Strict,
		VisibilityMode:   qaexpr.VisibilityError,
		CrossFieldRules:  f.expanded.CrossFieldRules,
		ProgressPolicy:   f.expanded.ProgressPolicy,
	})
	return result, nil
}

// PlanNext computes the next step for formID's current answer set.
func (e *Engine) PlanNext(formID string, ctxEnvelope json.RawMessage, answers map[string]any) (qaplan.Plan, error) {
	f, err := e.get(formID)
	if err != nil {
		return qaplan.Plan{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return qaplan.Plan{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}
	start := time.Now()
	plan := qaplan.PlanNext(f.expanded, toPlanContext(rc), answers, qaexpr.VisibilityVisible)
	e.publish("qa.plan.next", formID, map[string]any{"next_question_id": plan.NextQuestionID}, time.Since(start))
	return plan, nil
}

// PlanSubmitPatch validates and plans a single field submission.
func (e *Engine) PlanSubmitPatch(formID string, ctxEnvelope json.RawMessage, answers map[string]any, questionID string, value any) (qaplan.Plan, error) {
	f, err := e.get(formID)
	if err != nil {
		return qaplan.Plan{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return qaplan.Plan{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}
	start := time.Now()
	plan := qaplan.PlanSubmitPatch(f.expanded, toPlanContext(rc), answers, questionID, value, qaexpr.VisibilityVisible)
	e.publish("qa.plan.submit_patch", formID, map[string]any{"question_id": questionID, "error_count": len(plan.Errors)}, time.Since(start))
	return plan, nil
}

// PlanSubmitAll validates and plans the full answer set.
func (e *Engine) PlanSubmitAll(formID string, ctxEnvelope json.RawMessage, answers map[string]any) (qaplan.Plan, error) {
	f, err := e.get(formID)
	if err != nil {
		return qaplan.Plan{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return qaplan.Plan{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}
	start := time.Now()
	plan := qaplan.PlanSubmitAll(f.expanded, toPlanContext(rc), answers, qaexpr.VisibilityVisible)
	e.publish("qa.plan.submit_all", formID, map[string]any{"error_count": len(plan.Errors)}, time.Since(start))
	if len(plan.Errors) == 0 {
		visible := e.visibility(f.expanded, answers, qaexpr.VisibilityVisible)
		schema := qaspec.GenerateAnswerSchema(f.expanded, visible)
		examples := qaspec.GenerateExampleAnswers(f.expanded, visible)
		if bundle, berr := qabundle.Build(f.expanded, answers, schema, examples); berr == nil {
			e.publish("qa.wizard.generated", formID, bundle, 0)
		}
	}
	return plan, nil
}

// ApplyStore resolves formID's store[] mappings against the given
// answers and context, returning the ordered patch operations without
// executing them, per spec.md's apply_store(form_id, ctx, answers) ->
// Patches contract: the caller owns applying them to its own
// state/config storage. Hosts that have no storage of their own and
// just want the submission written call ExecuteStore instead.
func (e *Engine) ApplyStore(formID string, ctxEnvelope json.RawMessage, answers map[string]any) ([]qastore.Op, error) {
	f, err := e.get(formID)
	if err != nil {
		return nil, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return nil, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}

	ops, serr := resolveStoreOps(f.expanded, rc, answers)
	if serr != nil {
		return nil, &Error{Code: ErrInvalidPatch, Message: serr.Message}
	}
	e.publish("qa.store.applied", formID, map[string]any{"op_count": len(ops)}, 0)
	return ops, nil
}

// ExecuteStore resolves formID's store[] mappings the same way
// ApplyStore does, then immediately executes them against a
// {answers, state, config, payload_out} store built from the given
// context, returning both the resolved ops and the mutated store. For
// a host with no storage layer of its own — a CLI driving one wizard
// session in memory, say — this is the only way a submission's store
// writes (and any WriteSecret effect, via SetSecretWriter) actually
// take effect rather than being reported and discarded.
func (e *Engine) ExecuteStore(formID string, ctxEnvelope json.RawMessage, answers map[string]any) ([]qastore.Op, *qaplan.Store, error) {
	f, err := e.get(formID)
	if err != nil {
		return nil, nil, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return nil, nil, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}

	ops, serr := resolveStoreOps(f.expanded, rc, answers)
	if serr != nil {
		return nil, nil, &Error{Code: ErrInvalidPatch, Message: serr.Message}
	}

	store := &qaplan.Store{Answers: answers, State: rc.State, Config: rc.Config}
	if err := qaplan.ApplyStoreOps(ops, store, e.secrets); err != nil {
		return nil, nil, fmt.Errorf("qaengine: executing store ops: %w", err)
	}
	e.publish("qa.store.executed", formID, map[string]any{"op_count": len(ops)}, 0)
	return ops, store, nil
}

func resolveStoreOps(spec *qaspec.FormSpec, rc RuntimeContext, answers map[string]any) ([]qastore.Op, *qastore.Error) {
	policy := qasecrets.New(spec.SecretsPolicy)
	tctx := qatemplate.Context{
		Payload:       rc.Payload,
		State:         rc.State,
		Config:        rc.Config,
		Answers:       answers,
		Secrets:       rc.Secrets,
		SecretsPolicy: &policy,
		HostAvailable: rc.SecretsHostAvailable,
	}
	return qastore.Resolve(spec.Store, tctx, policy, rc.SecretsHostAvailable)
}

// SecretWriter is the host-provided callback an Execute call reaches
// for WriteSecret effects. Aliased from qaplan so hosts never need to
// import that package just to satisfy this interface.
type SecretWriter = qaplan.SecretWriter

// SetSecretWriter attaches the backend SubmitPatch/SubmitAll use to
// carry out WriteSecret effects. Passing nil (the default) means a
// plan with a write_secret effect fails at execute time rather than
// silently dropping the secret.
func (e *Engine) SetSecretWriter(w SecretWriter) {
	e.secrets = w
}

// SubmitStatus labels the outcome of a submit_patch/submit_all
// compatibility call, mirroring the original component's three-way
// need_input/complete/error status.
type SubmitStatus string

const (
	SubmitNeedInput SubmitStatus = "need_input"
	SubmitComplete  SubmitStatus = "complete"
	SubmitError     SubmitStatus = "error"
)

// SubmitResponse is the execute(plan(...)) compatibility shape spec.md
// §4.8 calls for: Validation is populated only on the error path,
// Store only on the success path, matching the original component's
// two distinct build_error_response/build_success_response shapes
// rather than inventing a third that carries both.
type SubmitResponse struct {
	Status         SubmitStatus
	NextQuestionID string
	Progress       qarender.Progress
	Answers        map[string]any
	StateToken     string
	Validation     *qavalidate.Result
	Store          *qaplan.Store
}

// SubmitPatch is the legacy submit_patch(form_id, ctx, answers,
// question_id, value) compatibility wrapper: it runs
// plan_submit_patch, then executes the resulting Plan against a
// {answers, state, config, payload_out} store before returning,
// so the caller never sees an unapplied Plan the way plan_submit_patch
// alone returns one.
func (e *Engine) SubmitPatch(formID string, ctxEnvelope json.RawMessage, answers map[string]any, questionID string, value any) (SubmitResponse, error) {
	f, err := e.get(formID)
	if err != nil {
		return SubmitResponse{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return SubmitResponse{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}

	plan := qaplan.PlanSubmitPatch(f.expanded, toPlanContext(rc), answers, questionID, value, qaexpr.VisibilityVisible)
	return e.execute(f, rc, answers, plan)
}

// SubmitAll is the legacy submit_all(form_id, ctx, answers)
// compatibility wrapper: plan_submit_all followed by execute.
func (e *Engine) SubmitAll(formID string, ctxEnvelope json.RawMessage, answers map[string]any) (SubmitResponse, error) {
	f, err := e.get(formID)
	if err != nil {
		return SubmitResponse{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return SubmitResponse{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}

	plan := qaplan.PlanSubmitAll(f.expanded, toPlanContext(rc), answers, qaexpr.VisibilityVisible)
	return e.execute(f, rc, answers, plan)
}

// execute shapes plan into a SubmitResponse, running it through
// qaplan.Execute on the success path. The response's progress/
// next_question_id are computed from the executed answer set's
// render payload, not from the Plan itself, since the original
// component derives them from render_payload after mutation too.
func (e *Engine) execute(f *loadedForm, rc RuntimeContext, answers map[string]any, plan qaplan.Plan) (SubmitResponse, error) {
	if len(plan.Errors) > 0 {
		result := qavalidate.Result{Valid: false, Errors: plan.Errors}
		payload := qarender.Build(f.expanded, toPlanContext(rc), answers, &plan, qaexpr.VisibilityVisible)
		e.publish("qa.submit", f.expanded.ID, map[string]any{"status": string(SubmitError), "error_count": len(plan.Errors)}, 0)
		return SubmitResponse{
			Status:         SubmitError,
			NextQuestionID: payload.NextQuestionID,
			Progress:       payload.Progress,
			Answers:        answers,
			StateToken:     plan.StateToken,
			Validation:     &result,
		}, nil
	}

	store := &qaplan.Store{Answers: answers, State: rc.State, Config: rc.Config}
	if err := qaplan.Execute(plan, store, e.secrets); err != nil {
		return SubmitResponse{}, fmt.Errorf("qaengine: executing plan: %w", err)
	}

	executedAnswers, _ := store.Answers.(map[string]any)
	if executedAnswers == nil {
		executedAnswers = answers
	}

	nextPlan := qaplan.PlanNext(f.expanded, toPlanContext(rc), executedAnswers, qaexpr.VisibilityVisible)
	payload := qarender.Build(f.expanded, toPlanContext(rc), executedAnswers, &nextPlan, qaexpr.VisibilityVisible)

	status := SubmitNeedInput
	if payload.NextQuestionID == "" {
		status = SubmitComplete
	}
	e.publish("qa.submit", f.expanded.ID, map[string]any{"status": string(status)}, 0)

	return SubmitResponse{
		Status:         status,
		NextQuestionID: payload.NextQuestionID,
		Progress:       payload.Progress,
		Answers:        executedAnswers,
		StateToken:     qaplan.StateToken(f.expanded.ID, f.expanded.Version, executedAnswers),
		Store:          store,
	}, nil
}

// RenderTarget enumerates the render frontends the engine can produce.
type RenderTarget string

const (
	TargetText   RenderTarget = "text"
	TargetJSONUI RenderTarget = "json_ui"
	TargetCard   RenderTarget = "card"
)

// RenderOutput carries exactly one populated field, selected by Target.
type RenderOutput struct {
	Target RenderTarget
	Text   string
	JSONUI map[string]any
	Card   map[string]any
}

// Render builds formID's RenderPayload from the current answers and
// context, then projects it into the requested target.
func (e *Engine) Render(formID string, ctxEnvelope json.RawMessage, answers map[string]any, target RenderTarget) (RenderOutput, error) {
	payload, err := e.RenderPayload(formID, ctxEnvelope, answers)
	if err != nil {
		return RenderOutput{}, err
	}

	defer e.publish("qa.render", formID, map[string]any{"target": string(target), "status": string(payload.Status)}, 0)

	switch target {
	case TargetText:
		return RenderOutput{Target: target, Text: qarender.Text(payload)}, nil
	case TargetJSONUI:
		return RenderOutput{Target: target, JSONUI: qarender.JSONUI(payload)}, nil
	case TargetCard:
		return RenderOutput{Target: target, Card: qarender.Card(payload)}, nil
	default:
		return RenderOutput{}, &Error{Code: ErrInvalidPatch, Message: "unknown render target " + string(target)}
	}
}

// RenderPayload builds formID's typed render payload without projecting
// it into any particular frontend. Hosts that need structured access to
// individual questions — a terminal wizard building its own prompts, for
// instance — call this instead of Render so they aren't left picking
// fields back out of a map[string]any.
func (e *Engine) RenderPayload(formID string, ctxEnvelope json.RawMessage, answers map[string]any) (qarender.Payload, error) {
	f, err := e.get(formID)
	if err != nil {
		return qarender.Payload{}, err
	}
	rc, perr := parseRuntimeContext(ctxEnvelope)
	if perr != nil {
		return qarender.Payload{}, fmt.Errorf("qaengine: parsing context envelope: %w", perr)
	}

	plan := qaplan.PlanNext(f.expanded, toPlanContext(rc), answers, qaexpr.VisibilityVisible)
	return qarender.Build(f.expanded, toPlanContext(rc), answers, &plan, qaexpr.VisibilityVisible), nil
}

func toPlanContext(rc RuntimeContext) qaplan.Context {
	return qaplan.Context{
		Payload:              rc.Payload,
		State:                rc.State,
		Config:               rc.Config,
		Secrets:              rc.Secrets,
		SecretsHostAvailable: rc.SecretsHostAvailable,
		Locale:               rc.Locale,
		I18nDebug:            rc.I18nDebug,
	}
}
