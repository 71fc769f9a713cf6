package qaexpr

import "testing"

func answersOf(m map[string]any) Answers { return map[string]any(m) }

func TestEvaluateLiteral(t *testing.T) {
	v, err := Evaluate(Lit(true), answersOf(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}
}

func TestEvaluateAnswerMissingIsNull(t *testing.T) {
	v, err := Evaluate(Answer("a"), answersOf(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil for missing answer, got %v", v)
	}
}

func TestEvaluateIsSet(t *testing.T) {
	answers := answersOf(map[string]any{"a": "yes"})

	v, err := Evaluate(IsSet("a"), answers)
	if err != nil || v != true {
		t.Errorf("expected is_set(a)=true, got %v (err=%v)", v, err)
	}

	v, err = Evaluate(IsSet("b"), answers)
	if err != nil || v != false {
		t.Errorf("expected is_set(b)=false, got %v (err=%v)", v, err)
	}
}

func TestEvaluateEqWithNullIsFalse(t *testing.T) {
	answers := answersOf(map[string]any{})
	v, err := Evaluate(Cmp(KindEq, Answer("missing"), Lit("yes")), answers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != false {
		t.Errorf("expected false comparing missing answer to literal, got %v", v)
	}
}

func TestEvaluateAndOrNot(t *testing.T) {
	answers := answersOf(map[string]any{"a": "yes", "b": "no"})

	aIsYes := Cmp(KindEq, Answer("a"), Lit("yes"))
	bIsYes := Cmp(KindEq, Answer("b"), Lit("yes"))

	v, err := Evaluate(And(aIsYes, Not(bIsYes)), answers)
	if err != nil || v != true {
		t.Errorf("expected and(a==yes, not(b==yes))=true, got %v (err=%v)", v, err)
	}

	v, err = Evaluate(Or(aIsYes, bIsYes), answers)
	if err != nil || v != true {
		t.Errorf("expected or(...)=true, got %v (err=%v)", v, err)
	}
}

func TestEvaluateComparisons(t *testing.T) {
	answers := answersOf(map[string]any{"n": float64(5)})

	cases := []struct {
		kind Kind
		lit  float64
		want bool
	}{
		{KindLt, 10, true},
		{KindLt, 5, false},
		{KindLe, 5, true},
		{KindGt, 1, true},
		{KindGe, 5, true},
		{KindNe, 1, true},
	}
	for _, c := range cases {
		v, err := Evaluate(Cmp(c.kind, Answer("n"), Lit(c.lit)), answers)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.kind, err)
		}
		if v != c.want {
			t.Errorf("%s %v: got %v, want %v", c.kind, c.lit, v, c.want)
		}
	}
}

func TestEvaluateNotOnNonBooleanIsTypeMismatch(t *testing.T) {
	_, err := Evaluate(Not(Answer("a")), answersOf(map[string]any{"a": "yes"}))
	if err == nil || err.Code != ErrTypeMismatch {
		t.Errorf("expected type mismatch, got %v", err)
	}
}

func TestResolveVisibleNoExpressionIsAlwaysVisible(t *testing.T) {
	visible, err := ResolveVisible(nil, answersOf(nil), VisibilityError)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !visible {
		t.Error("expected a question with no visible_if to always be visible")
	}
}

func TestResolveVisibleIndeterminateByMode(t *testing.T) {
	expr := Answer("a") // resolves to null when "a" is absent: indeterminate
	answers := answersOf(map[string]any{})

	visible, err := ResolveVisible(&expr, answers, VisibilityVisible)
	if err != nil || !visible {
		t.Errorf("visible mode: expected visible=true, got %v (err=%v)", visible, err)
	}

	visible, err = ResolveVisible(&expr, answers, VisibilityHidden)
	if err != nil || visible {
		t.Errorf("hidden mode: expected visible=false, got %v (err=%v)", visible, err)
	}

	_, err = ResolveVisible(&expr, answers, VisibilityError)
	if err == nil {
		t.Error("error mode: expected an error for indeterminate visibility")
	}
}

func TestResolveVisibleDecided(t *testing.T) {
	expr := Cmp(KindEq, Answer("a"), Lit("yes"))
	answers := answersOf(map[string]any{"a": "no"})

	visible, err := ResolveVisible(&expr, answers, VisibilityError)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visible {
		t.Error("expected visible=false when a != yes")
	}
}
