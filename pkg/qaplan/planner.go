package qaplan

import (
	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaprogress"
	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastore"
	"github.com/BimaPangestu28/greentic-qa/pkg/qatemplate"
	"github.com/BimaPangestu28/greentic-qa/pkg/qavalidate"
)

// PlanNext computes the next step and rendering inputs for the current
// answer set. It never mutates its inputs; any autofill/computed
// assignments are returned as deferred effects.
func PlanNext(spec *qaspec.FormSpec, ctx Context, answers map[string]any, mode qaexpr.VisibilityMode) Plan {
	progress := qaprogress.Next(spec, answers, ctx.State, ctx.Config, mode)

	secretsPolicy := qasecrets.New(spec.SecretsPolicy)
	plan := basePlan(spec, answers, ModeNext)
	plan.NextQuestionID = progress.NextQuestionID
	plan.Effects = autofillEffects(progress, templateContext(ctx, answers, &secretsPolicy))
	return plan
}

// PlanSubmitPatch validates a single field submission, computes the
// resulting validated patch and store effects, and computes the next
// question. On validation failure, Errors is populated and Effects is
// empty — the planner stays total.
func PlanSubmitPatch(spec *qaspec.FormSpec, ctx Context, answers map[string]any, questionID string, value any, mode qaexpr.VisibilityMode) Plan {
	plan := basePlan(spec, answers, ModeSubmitPatch)

	if _, found := spec.QuestionByID(questionID); !found {
		plan.Errors = []qavalidate.ValidationError{{QuestionID: questionID, Path: "/" + questionID, Code: "unknown_question", Message: "question id is not defined in this form"}}
		progress := qaprogress.Next(spec, answers, ctx.State, ctx.Config, mode)
		plan.NextQuestionID = progress.NextQuestionID
		return plan
	}

	merged := mergeAnswer(answers, questionID, value)

	result := qavalidate.Validate(spec, merged, qavalidate.Options{
		Mode:                qavalidate.Patch,
		UnknownFieldMode:    qavalidate.Strict,
		VisibilityMode:      mode,
		CrossFieldRules:     spec.CrossFieldRules,
		SubmittedQuestionID: questionID,
		ProgressPolicy:      spec.ProgressPolicy,
	})
	plan.Warnings = result.Warnings

	if !result.Valid {
		plan.Errors = result.Errors
		plan.NextQuestionID = questionID
		return plan
	}

	secretsPolicy := qasecrets.New(spec.SecretsPolicy)
	tctx := templateContext(ctx, merged, &secretsPolicy)
	storeOps, serr := qastore.Resolve(spec.Store, tctx, secretsPolicy, ctx.SecretsHostAvailable)
	if serr != nil {
		plan.Errors = []qavalidate.ValidationError{{Path: serr.Path, Code: serr.Code, Message: serr.Message}}
		plan.NextQuestionID = questionID
		return plan
	}

	progress := qaprogress.Next(spec, merged, ctx.State, ctx.Config, mode)

	plan.ValidatedPatch = []PatchOp{{Op: "add", Path: "/" + questionID, Value: value}}
	plan.Effects = append([]Effect{{Kind: EffectSetAnswer, Path: "/" + questionID, Value: value}}, storeEffects(storeOps)...)
	plan.Effects = append(plan.Effects, autofillEffects(progress, tctx)...)
	plan.NextQuestionID = progress.NextQuestionID
	return plan
}

// PlanSubmitAll validates the full answer set. On success the patch
// covers the reconciled answer set and effects include every store
// mapping; on failure Errors is populated and Effects is empty.
func PlanSubmitAll(spec *qaspec.FormSpec, ctx Context, answers map[string]any, mode qaexpr.VisibilityMode) Plan {
	plan := basePlan(spec, answers, ModeSubmitAll)

	result := qavalidate.Validate(spec, answers, qavalidate.Options{
		Mode:             qavalidate.All,
		UnknownFieldMode: qavalidate.Strict,
		VisibilityMode:   mode,
		CrossFieldRules:  spec.CrossFieldRules,
		ProgressPolicy:   spec.ProgressPolicy,
	})
	plan.Warnings = result.Warnings

	if !result.Valid {
		plan.Errors = result.Errors
		progress := qaprogress.Next(spec, answers, ctx.State, ctx.Config, mode)
		plan.NextQuestionID = progress.NextQuestionID
		return plan
	}

	secretsPolicy := qasecrets.New(spec.SecretsPolicy)
	tctx := templateContext(ctx, answers, &secretsPolicy)
	storeOps, serr := qastore.Resolve(spec.Store, tctx, secretsPolicy, ctx.SecretsHostAvailable)
	if serr != nil {
		plan.Errors = []qavalidate.ValidationError{{Path: serr.Path, Code: serr.Code, Message: serr.Message}}
		return plan
	}

	progress := qaprogress.Next(spec, answers, ctx.State, ctx.Config, mode)

	patch := make([]PatchOp, 0, len(answers))
	for key, value := range answers {
		patch = append(patch, PatchOp{Op: "add", Path: "/" + key, Value: value})
	}
	plan.ValidatedPatch = patch
	plan.Effects = storeEffects(storeOps)
	plan.Effects = append(plan.Effects, autofillEffects(progress, tctx)...)
	plan.NextQuestionID = progress.NextQuestionID
	return plan
}

func basePlan(spec *qaspec.FormSpec, answers map[string]any, mode Mode) Plan {
	return Plan{
		PlanVersion:    1,
		FormID:         spec.ID,
		Mode:           mode,
		StateToken:     StateToken(spec.ID, spec.Version, answers),
		ValidatedPatch: []PatchOp{},
		Effects:        []Effect{},
	}
}

func mergeAnswer(answers map[string]any, questionID string, value any) map[string]any {
	merged := make(map[string]any, len(answers)+1)
	for k, v := range answers {
		merged[k] = v
	}
	merged[questionID] = value
	return merged
}

func templateContext(ctx Context, answers map[string]any, policy *qasecrets.Policy) qatemplate.Context {
	return qatemplate.Context{
		Payload:       ctx.Payload,
		State:         ctx.State,
		Config:        ctx.Config,
		Answers:       answers,
		Secrets:       ctx.Secrets,
		SecretsPolicy: policy,
		HostAvailable: ctx.SecretsHostAvailable,
	}
}

func storeEffects(ops []qastore.Op) []Effect {
	effects := make([]Effect, 0, len(ops))
	for _, op := range ops {
		var kind EffectKind
		switch op.Target {
		case qaspec.TargetAnswers:
			kind = EffectSetAnswer
		case qaspec.TargetState:
			kind = EffectSetStatePath
		case qaspec.TargetConfig:
			kind = EffectSetConfigPath
		case qaspec.TargetPayloadOut:
			kind = EffectSetPayloadOutPath
		case qaspec.TargetSecrets:
			kind = EffectWriteSecret
		}
		effects = append(effects, Effect{Kind: kind, Path: op.Path, Value: op.Value})
	}
	return effects
}

// autofillEffects turns planned autofill/computed assignments into
// SetAnswer effects. Autofill values come from QuestionSpec.Default,
// which may itself be a template string — resolved here against tctx,
// the same post-submission context store mappings resolve against.
// Computed values are already concrete (qaexpr.Evaluate output) and
// pass through untouched.
func autofillEffects(progress qaprogress.Result, tctx qatemplate.Context) []Effect {
	effects := make([]Effect, 0, len(progress.Autofills)+len(progress.ComputedAssignments))
	for _, a := range progress.Autofills {
		value, terr := qatemplate.ResolveValue(a.Value, tctx, qatemplate.Strict)
		if terr != nil {
			value = a.Value
		}
		effects = append(effects, Effect{Kind: EffectSetAnswer, Path: "/" + a.QuestionID, Value: value})
	}
	for _, a := range progress.ComputedAssignments {
		effects = append(effects, Effect{Kind: EffectSetAnswer, Path: "/" + a.QuestionID, Value: a.Value})
	}
	return effects
}
