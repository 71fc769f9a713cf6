package qainclude

import (
	"testing"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

func formWithInclude(id string, include []string, questionIDs ...string) *qaspec.FormSpec {
	f := &qaspec.FormSpec{ID: id, Title: id, Version: "1", Include: include}
	for _, qid := range questionIDs {
		f.Questions = append(f.Questions, qaspec.QuestionSpec{ID: qid, Type: qaspec.TypeString, Title: qid})
	}
	return f
}

func TestResolveNoIncludes(t *testing.T) {
	root := formWithInclude("root", nil, "a", "b")
	resolved, err := Resolve(root, Registry{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(resolved.Questions))
	}
}

func TestResolveExpandsDeclarationOrder(t *testing.T) {
	contact := formWithInclude("contact", nil, "email")
	root := formWithInclude("root", []string{"contact"}, "name")
	resolved, err := Resolve(root, Registry{"contact": contact})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Questions) != 2 || resolved.Questions[0].ID != "email" || resolved.Questions[1].ID != "name" {
		t.Fatalf("expected [email, name], got %v", ids(resolved.Questions))
	}
}

func TestResolveCycleDetected(t *testing.T) {
	x := formWithInclude("X", []string{"Y"})
	y := formWithInclude("Y", []string{"X"})
	_, err := Resolve(x, Registry{"X": x, "Y": y})
	ierr, ok := err.(*Error)
	if !ok || ierr.Code != ErrIncludeCycleDetected {
		t.Fatalf("expected include_cycle_detected, got %v", err)
	}
	want := []string{"X", "Y", "X"}
	if len(ierr.Chain) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, ierr.Chain)
	}
	for i := range want {
		if ierr.Chain[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, ierr.Chain)
		}
	}
}

func TestResolveMissingInclude(t *testing.T) {
	root := formWithInclude("root", []string{"nowhere"})
	_, err := Resolve(root, Registry{})
	ierr, ok := err.(*Error)
	if !ok || ierr.Code != ErrIncludeMissing {
		t.Fatalf("expected include_missing, got %v", err)
	}
}

func TestResolveDuplicateIDAcrossIncludeIsRejected(t *testing.T) {
	contact := formWithInclude("contact", nil, "name")
	root := formWithInclude("root", []string{"contact"}, "name")
	_, err := Resolve(root, Registry{"contact": contact})
	if err == nil {
		t.Fatal("expected a post-expansion duplicate id error")
	}
}

func ids(qs []qaspec.QuestionSpec) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
