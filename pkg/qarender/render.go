// Package qarender builds a canonical RenderPayload from a spec,
// context, and answer set, then projects that payload into the three
// supported transports: plain text, a JSON-UI document, and an
// Adaptive Card 1.3 document. Renderers are pure functions; none of
// them touch disk, network, or environment.
package qarender

import (
	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaplan"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaprogress"
	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qatemplate"
	"github.com/BimaPangestu28/greentic-qa/pkg/qavalidate"
)

// Status labels the renderer-facing outcome of the current answer set.
type Status string

const (
	StatusNeedInput Status = "need_input"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Progress reports visible-question completion counters.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// Question is the renderer-facing projection of one QuestionSpec.
// CurrentValue is always nil for secret questions — render output must
// never carry a secret value in any form.
type Question struct {
	ID           string
	Title        string
	TitleKey     string
	Description  string
	DescKey      string
	Type         qaspec.QuestionType
	Required     bool
	Default      any
	Secret       bool
	Visible      bool
	CurrentValue any
	HasValue     bool
	Choices      []string
}

// Payload is the shared input to all three renderers.
type Payload struct {
	FormID         string
	FormTitle      string
	FormVersion    string
	Status         Status
	NextQuestionID string
	Progress       Progress
	Help           string
	Questions      []Question
	Schema         map[string]any
	Errors         []qavalidate.ValidationError
	Locale         string
	I18nDebug      bool
}

// Build assembles a Payload from a spec, the running context, and the
// current answer set. plan, if non-nil, supplies next_question_id and
// errors already computed by a planner; when nil, Build computes the
// next question itself via the progress engine.
func Build(spec *qaspec.FormSpec, ctx qaplan.Context, answers map[string]any, plan *qaplan.Plan, mode qaexpr.VisibilityMode) Payload {
	visible := map[string]bool{}
	for _, q := range spec.Questions {
		v, _ := qaexpr.ResolveVisible(q.VisibleIf, answers, mode)
		visible[q.ID] = v
	}

	progress := qaprogress.Next(spec, answers, ctx.State, ctx.Config, mode)

	nextQuestionID := progress.NextQuestionID
	var errs []qavalidate.ValidationError
	if plan != nil {
		nextQuestionID = plan.NextQuestionID
		errs = plan.Errors
	}

	secretsPolicy := qasecrets.New(spec.SecretsPolicy)
	tctx := qatemplate.Context{
		Payload:       ctx.Payload,
		State:         ctx.State,
		Config:        ctx.Config,
		Answers:       answers,
		Secrets:       ctx.Secrets,
		SecretsPolicy: &secretsPolicy,
		HostAvailable: ctx.SecretsHostAvailable,
	}

	questions := make([]Question, 0, len(spec.Questions))
	for _, q := range spec.Questions {
		rq := Question{
			ID:          q.ID,
			Title:       resolveLocalized(q.Title, q.TitleI18n, ctx.Locale, spec.DefaultLocale),
			Description: resolveLocalized(q.Description, q.DescriptionI18n, ctx.Locale, spec.DefaultLocale),
			Type:        q.Type,
			Required:    q.Required,
			Default:     resolvedDefault(q, tctx),
			Secret:      q.Secret,
			Visible:     visible[q.ID],
			Choices:     q.Enum,
		}
		if ctx.I18nDebug {
			rq.TitleKey = q.ID + ".title"
			rq.DescKey = q.ID + ".description"
		}
		if v, ok := answers[q.ID]; ok {
			rq.HasValue = true
			if !q.Secret {
				rq.CurrentValue = v
			}
		}
		questions = append(questions, rq)
	}

	help := spec.Intro
	if help == "" {
		help = spec.Description
	}

	status := StatusComplete
	if nextQuestionID != "" {
		status = StatusNeedInput
	}
	if len(errs) > 0 && nextQuestionID == "" {
		status = StatusError
	}

	return Payload{
		FormID:         spec.ID,
		FormTitle:      spec.Title,
		FormVersion:    spec.Version,
		Status:         status,
		NextQuestionID: nextQuestionID,
		Progress:       Progress{Answered: progress.Progress.Answered, Total: progress.Progress.Total},
		Help:           help,
		Questions:      questions,
		Schema:         qaspec.GenerateAnswerSchema(spec, visible),
		Errors:         errs,
		Locale:         ctx.Locale,
		I18nDebug:      ctx.I18nDebug,
	}
}

// resolvedDefault resolves a question's templated default against tctx.
// Secret questions never expose a resolved or raw default — the same
// silence guarantee CurrentValue carries. For non-secret questions, a
// resolution failure falls back to the raw default rather than failing
// the whole render.
func resolvedDefault(q qaspec.QuestionSpec, tctx qatemplate.Context) any {
	if q.Secret {
		return nil
	}
	resolved, terr := qatemplate.ResolveValue(q.Default, tctx, qatemplate.Relaxed)
	if terr != nil {
		return q.Default
	}
	return resolved
}

// resolveLocalized picks ctx.locale from i18n, falling back to the
// form's default locale, then the raw field.
func resolveLocalized(raw string, i18n map[string]string, locale, defaultLocale string) string {
	if locale != "" {
		if v, ok := i18n[locale]; ok {
			return v
		}
	}
	if defaultLocale != "" {
		if v, ok := i18n[defaultLocale]; ok {
			return v
		}
	}
	return raw
}
