package qaengine

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const linearFormJSON = `{
	"id": "onboarding",
	"title": "Onboarding",
	"version": "1",
	"questions": [
		{"id": "id", "type": "string", "title": "Id", "required": true, "pattern": "^[a-z]+$"},
		{"id": "title", "type": "string", "title": "Title", "required": true},
		{"id": "version", "type": "string", "title": "Version", "required": true}
	]
}`

const secretFormJSON = `{
	"id": "creds",
	"title": "Credentials",
	"version": "1",
	"secrets_policy": {"enabled": true, "read_enabled": true, "allow": ["api.*"]},
	"questions": [
		{"id": "greeting", "type": "string", "title": "Greeting",
		 "default": "{{get secrets.api.key}}"}
	]
}`

func mustLoad(t *testing.T, e *Engine, spec string) string {
	t.Helper()
	formID, _, err := e.LoadForm(json.RawMessage(spec))
	if err != nil {
		t.Fatalf("LoadForm failed: %v", err)
	}
	return formID
}

func TestLoadFormAndGetFormSpec(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)
	if formID != "onboarding" {
		t.Fatalf("expected form id \"onboarding\", got %q", formID)
	}
	raw, err := e.GetFormSpec(formID)
	if err != nil {
		t.Fatalf("GetFormSpec failed: %v", err)
	}
	if !strings.Contains(string(raw), "onboarding") {
		t.Errorf("expected marshaled spec to mention the form id, got %s", raw)
	}
}

func TestGetFormSpecUnknownForm(t *testing.T) {
	e := New()
	_, err := e.GetFormSpec("nope")
	if err == nil {
		t.Fatal("expected an unknown_form error")
	}
	engErr, ok := err.(*Error)
	if !ok || engErr.Code != ErrUnknownForm {
		t.Errorf("expected *Error{unknown_form}, got %v", err)
	}
}

func TestGetAnswerSchemaAndExampleAnswers(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	schema, err := e.GetAnswerSchema(formID, nil)
	if err != nil {
		t.Fatalf("GetAnswerSchema failed: %v", err)
	}
	props, _ := schema["properties"].(map[string]any)
	if len(props) != 3 {
		t.Errorf("expected 3 properties, got %v", props)
	}

	examples, err := e.GetExampleAnswers(formID, nil)
	if err != nil {
		t.Fatalf("GetExampleAnswers failed: %v", err)
	}
	if examples["id"] != "example-id" {
		t.Errorf("expected example-id placeholder, got %v", examples["id"])
	}
}

func TestPlanNextLinearHappyPath(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	plan, err := e.PlanNext(formID, nil, map[string]any{})
	if err != nil {
		t.Fatalf("PlanNext failed: %v", err)
	}
	if plan.NextQuestionID != "id" {
		t.Errorf("expected next_question_id=\"id\", got %q", plan.NextQuestionID)
	}

	plan, err = e.PlanSubmitPatch(formID, nil, map[string]any{}, "id", "foo")
	if err != nil {
		t.Fatalf("PlanSubmitPatch failed: %v", err)
	}
	if plan.NextQuestionID != "title" || len(plan.Errors) != 0 {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestPlanSubmitAllComplete(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	answers := map[string]any{"id": "foo", "title": "bar", "version": "1"}
	plan, err := e.PlanSubmitAll(formID, nil, answers)
	if err != nil {
		t.Fatalf("PlanSubmitAll failed: %v", err)
	}
	if len(plan.Errors) != 0 || plan.NextQuestionID != "" {
		t.Errorf("expected complete with no errors, got %+v", plan)
	}
}

func TestRenderAllThreeTargets(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	text, err := e.Render(formID, nil, map[string]any{}, TargetText)
	if err != nil || text.Text == "" {
		t.Fatalf("text render failed: %v / %q", err, text.Text)
	}

	jsonui, err := e.Render(formID, nil, map[string]any{}, TargetJSONUI)
	if err != nil || jsonui.JSONUI == nil {
		t.Fatalf("json_ui render failed: %v", err)
	}

	card, err := e.Render(formID, nil, map[string]any{}, TargetCard)
	if err != nil || card.Card == nil {
		t.Fatalf("card render failed: %v", err)
	}
	if card.Card["version"] != "1.3" {
		t.Errorf("expected card version 1.3, got %v", card.Card["version"])
	}
}

func TestRenderNeverLeaksSecretDefaultValue(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, secretFormJSON)

	text, err := e.Render(formID, nil, map[string]any{}, TargetText)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(text.Text, "secret_access_denied") {
		t.Error("denied secret access placeholder leaked into rendered text")
	}
}

type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) PublishQAEvent(eventType, formID string, data any, duration time.Duration) {
	r.events = append(r.events, eventType)
}

func TestEnginePublishesLifecycleEvents(t *testing.T) {
	e := New()
	pub := &recordingPublisher{}
	e.SetEventPublisher(pub)

	formID := mustLoad(t, e, linearFormJSON)
	if _, err := e.PlanNext(formID, nil, map[string]any{}); err != nil {
		t.Fatalf("PlanNext failed: %v", err)
	}

	answers := map[string]any{"id": "foo", "title": "bar", "version": "1"}
	if _, err := e.PlanSubmitAll(formID, nil, answers); err != nil {
		t.Fatalf("PlanSubmitAll failed: %v", err)
	}

	want := map[string]bool{"qa.form.loaded": false, "qa.plan.next": false, "qa.plan.submit_all": false, "qa.wizard.generated": false}
	for _, got := range pub.events {
		if _, ok := want[got]; ok {
			want[got] = true
		}
	}
	for evt, seen := range want {
		if !seen {
			t.Errorf("expected event %q to have been published, got %v", evt, pub.events)
		}
	}
}

func TestApplyStoreResolvesOrderedOps(t *testing.T) {
	raw := `{
		"id": "withstore",
		"title": "With Store",
		"version": "1",
		"questions": [{"id": "name", "type": "string", "title": "Name", "required": true}],
		"store": [{"target": "state", "path": "/greeting", "value": "hello {{get answers.name}}", "is_template": true}]
	}`
	e := New()
	formID := mustLoad(t, e, raw)

	ops, err := e.ApplyStore(formID, nil, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("ApplyStore failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Value != "hello Ada" {
		t.Errorf("unexpected ops: %+v", ops)
	}
}

const withStoreFormJSON = `{
	"id": "withstore",
	"title": "With Store",
	"version": "1",
	"questions": [{"id": "name", "type": "string", "title": "Name", "required": true}],
	"store": [{"target": "state", "path": "/greeting", "value": "hello {{get answers.name}}", "is_template": true}]
}`

func TestExecuteStoreAppliesResolvedOps(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, withStoreFormJSON)

	ops, store, err := e.ExecuteStore(formID, nil, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("ExecuteStore failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected one resolved op, got %+v", ops)
	}
	state, _ := store.State.(map[string]any)
	if state["greeting"] != "hello Ada" {
		t.Errorf("expected ExecuteStore to write state.greeting, got %+v", store.State)
	}
}

func TestSubmitPatchAppliesAutofillEffectsToAnswers(t *testing.T) {
	raw := `{
		"id": "withdefault",
		"title": "With Default",
		"version": "1",
		"progress_policy": {"autofill_defaults": true},
		"questions": [
			{"id": "name", "type": "string", "title": "Name", "required": true},
			{"id": "plan", "type": "string", "title": "Plan", "required": true, "default": "basic"}
		]
	}`
	e := New()
	formID := mustLoad(t, e, raw)

	resp, err := e.SubmitPatch(formID, nil, map[string]any{}, "name", "Ada")
	if err != nil {
		t.Fatalf("SubmitPatch failed: %v", err)
	}
	if resp.Status != SubmitComplete {
		t.Fatalf("expected status complete once the autofilled default lands, got %+v", resp)
	}
	if resp.Answers["plan"] != "basic" {
		t.Errorf("expected the executor to have written the autofilled default into answers, got %+v", resp.Answers)
	}
	if resp.StateToken == "" {
		t.Error("expected a non-empty state token on success")
	}
}

func TestSubmitPatchReturnsErrorStatusOnValidationFailure(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	resp, err := e.SubmitPatch(formID, nil, map[string]any{}, "id", "NOT-LOWERCASE")
	if err != nil {
		t.Fatalf("SubmitPatch failed: %v", err)
	}
	if resp.Status != SubmitError {
		t.Fatalf("expected status error for a pattern mismatch, got %+v", resp)
	}
	if resp.Validation == nil || len(resp.Validation.Errors) == 0 {
		t.Errorf("expected Validation.Errors to be populated, got %+v", resp.Validation)
	}
}

func TestSubmitAllCompletesAndExecutesPlan(t *testing.T) {
	e := New()
	formID := mustLoad(t, e, linearFormJSON)

	answers := map[string]any{"id": "foo", "title": "bar", "version": "1"}
	resp, err := e.SubmitAll(formID, nil, answers)
	if err != nil {
		t.Fatalf("SubmitAll failed: %v", err)
	}
	if resp.Status != SubmitComplete {
		t.Fatalf("expected status complete, got %+v", resp)
	}
	if resp.Store == nil {
		t.Error("expected Store to be populated on the success path")
	}
}
