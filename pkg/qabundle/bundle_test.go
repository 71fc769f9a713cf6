package qabundle

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

func validFormSpec() *qaspec.FormSpec {
	return &qaspec.FormSpec{
		ID:      "onboarding",
		Title:   "Onboarding",
		Version: "1",
		Questions: []qaspec.QuestionSpec{
			{ID: "id", Type: qaspec.TypeString, Title: "ID", Required: true},
			{ID: "title", Type: qaspec.TypeString, Title: "Title", Required: true},
		},
	}
}

func findFile(b Bundle, path string) (File, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

func TestBuildProducesCanonicalLayout(t *testing.T) {
	spec := validFormSpec()
	answers := map[string]any{"id": "foo", "title": "bar"}

	b, err := Build(spec, answers, map[string]any{"type": "object"}, answers)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if b.DirName != "onboarding" {
		t.Errorf("DirName = %q, want %q", b.DirName, "onboarding")
	}

	want := []string{
		"forms/onboarding.form.json",
		"flows/onboarding.qaflow.json",
		"examples/onboarding.answers.example.json",
		"schemas/onboarding.answers.schema.json",
		"README.md",
	}
	for _, path := range want {
		if _, ok := findFile(b, path); !ok {
			t.Errorf("expected bundle to contain %q", path)
		}
	}

	if b.SummaryMD == "" {
		t.Error("expected a non-empty summary")
	}
}

func TestBuildFlowIsLinearOverQuestionOrder(t *testing.T) {
	spec := validFormSpec()
	b, err := Build(spec, nil, map[string]any{}, map[string]any{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	f, ok := findFile(b, "flows/onboarding.qaflow.json")
	if !ok {
		t.Fatal("missing flow file")
	}
	decoded, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	flowJSON := string(decoded)
	if !strings.Contains(flowJSON, `"entry": "id"`) {
		t.Errorf("expected entry=id, got %s", flowJSON)
	}
	if !strings.Contains(flowJSON, `"next": "title"`) {
		t.Errorf("expected id to step to title, got %s", flowJSON)
	}
}

func TestBuildContentsAreBase64(t *testing.T) {
	spec := validFormSpec()
	b, err := Build(spec, nil, map[string]any{}, map[string]any{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	f, ok := findFile(b, "forms/onboarding.form.json")
	if !ok {
		t.Fatal("missing form file")
	}
	decoded, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
	if err != nil {
		t.Fatalf("expected valid base64, got error: %v", err)
	}
	if !strings.Contains(string(decoded), `"id": "onboarding"`) {
		t.Errorf("expected decoded form json to contain the form id, got %s", decoded)
	}
}
