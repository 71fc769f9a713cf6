package qaprogress

import (
	"testing"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

func linearSpec() *qaspec.FormSpec {
	return &qaspec.FormSpec{
		ID: "onboarding", Title: "Onboarding", Version: "1",
		Questions: []qaspec.QuestionSpec{
			{ID: "id", Type: qaspec.TypeString, Title: "Id", Required: true},
			{ID: "title", Type: qaspec.TypeString, Title: "Title", Required: true},
			{ID: "version", Type: qaspec.TypeString, Title: "Version", Required: true},
		},
	}
}

func TestNextOnEmptyAnswerSetReturnsFirstQuestion(t *testing.T) {
	result := Next(linearSpec(), map[string]any{}, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "id" {
		t.Errorf("expected next question \"id\", got %q", result.NextQuestionID)
	}
	if result.Progress.Total != 3 || result.Progress.Answered != 0 {
		t.Errorf("expected progress 0/3, got %d/%d", result.Progress.Answered, result.Progress.Total)
	}
}

func TestNextAdvancesAfterAnswer(t *testing.T) {
	result := Next(linearSpec(), map[string]any{"id": "foo"}, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "title" {
		t.Errorf("expected next question \"title\", got %q", result.NextQuestionID)
	}
	if result.Progress.Answered != 1 {
		t.Errorf("expected 1 answered, got %d", result.Progress.Answered)
	}
}

func TestNextCompleteWhenAllAnswered(t *testing.T) {
	answers := map[string]any{"id": "foo", "title": "bar", "version": "1"}
	result := Next(linearSpec(), answers, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "" {
		t.Errorf("expected no next question, got %q", result.NextQuestionID)
	}
	if result.Progress.Answered != result.Progress.Total {
		t.Errorf("expected complete progress, got %d/%d", result.Progress.Answered, result.Progress.Total)
	}
}

func TestNextSkipsInvisibleQuestions(t *testing.T) {
	visibleExpr := qaexpr.Cmp(qaexpr.KindEq, qaexpr.Answer("a"), qaexpr.Lit("yes"))
	spec := &qaspec.FormSpec{
		ID: "cond", Title: "Conditional", Version: "1",
		Questions: []qaspec.QuestionSpec{
			{ID: "a", Type: qaspec.TypeString, Title: "A", Required: true},
			{ID: "b", Type: qaspec.TypeString, Title: "B", Required: true, VisibleIf: &visibleExpr},
		},
	}
	result := Next(spec, map[string]any{"a": "no"}, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "" {
		t.Errorf("expected complete (B invisible), got next=%q", result.NextQuestionID)
	}
	if result.Progress.Total != 1 {
		t.Errorf("expected total=1 (B not counted as visible), got %d", result.Progress.Total)
	}
}

func TestNextComputedNeverReturnedAsNext(t *testing.T) {
	computedExpr := qaexpr.Lit(float64(99))
	spec := &qaspec.FormSpec{
		ID: "calc", Title: "Calc", Version: "1",
		Questions: []qaspec.QuestionSpec{
			{ID: "total", Type: qaspec.TypeNumber, Title: "Total", Computed: &computedExpr},
			{ID: "name", Type: qaspec.TypeString, Title: "Name", Required: true},
		},
	}
	result := Next(spec, map[string]any{}, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "name" {
		t.Errorf("expected next question \"name\" (computed field skipped), got %q", result.NextQuestionID)
	}
	if len(result.ComputedAssignments) != 1 || result.ComputedAssignments[0].QuestionID != "total" {
		t.Errorf("expected a computed assignment for \"total\", got %v", result.ComputedAssignments)
	}
}

func TestNextAutofillDefaults(t *testing.T) {
	spec := linearSpec()
	spec.ProgressPolicy.AutofillDefaults = true
	spec.Questions[0].Default = "generated-id"
	result := Next(spec, map[string]any{}, nil, nil, qaexpr.VisibilityVisible)
	if result.NextQuestionID != "title" {
		t.Errorf("expected autofilled \"id\" to be skipped, next should be \"title\", got %q", result.NextQuestionID)
	}
	if len(result.Autofills) != 1 || result.Autofills[0].QuestionID != "id" {
		t.Errorf("expected one autofill for \"id\", got %v", result.Autofills)
	}
}
