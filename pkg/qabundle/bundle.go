// Package qabundle builds the canonical on-disk layout for a completed
// form — forms/<id>.form.json, flows/<id>.qaflow.json,
// examples/<id>.answers.example.json, schemas/<id>.answers.schema.json,
// and README.md — and, for the dev-writer persistence mode, writes that
// layout to disk under a sandboxed root. Build itself performs no I/O:
// it is as pure as the rest of the engine core, so qaengine can call it
// to shape the qa.wizard.generated event payload without reaching for a
// filesystem.
package qabundle

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// File is one member of a Bundle, with contents carried base64-encoded
// so the whole Bundle can travel as a JSON event payload.
type File struct {
	Path           string `json:"path"`
	ContentsBase64 string `json:"contents_base64"`
	ContentType    string `json:"content_type"`
}

// Bundle is the canonical generated-form layout for one form id.
type Bundle struct {
	DirName   string `json:"dir_name"`
	Files     []File `json:"files"`
	SummaryMD string `json:"summary_md"`
}

// Build produces the canonical Bundle for spec given a complete answer
// set. It always derives a linear QAFlowSpec from spec's question
// order — one question step per question, in declaration order,
// terminating at qaspec.EndStep; it takes no caller-supplied flow.
func Build(spec *qaspec.FormSpec, answers map[string]any, schema, examples map[string]any) (Bundle, error) {
	formJSON, err := marshalIndent(spec)
	if err != nil {
		return Bundle{}, fmt.Errorf("qabundle: marshal form spec: %w", err)
	}

	flow := deriveLinearFlow(spec)
	flowJSON, err := marshalIndent(flow)
	if err != nil {
		return Bundle{}, fmt.Errorf("qabundle: marshal flow spec: %w", err)
	}

	exampleJSON, err := marshalIndent(examples)
	if err != nil {
		return Bundle{}, fmt.Errorf("qabundle: marshal example answers: %w", err)
	}

	schemaJSON, err := marshalIndent(schema)
	if err != nil {
		return Bundle{}, fmt.Errorf("qabundle: marshal answer schema: %w", err)
	}

	readme := buildReadme(spec)

	files := []File{
		{Path: fmt.Sprintf("forms/%s.form.json", spec.ID), ContentsBase64: encode(formJSON), ContentType: "application/json"},
		{Path: fmt.Sprintf("flows/%s.qaflow.json", spec.ID), ContentsBase64: encode(flowJSON), ContentType: "application/json"},
		{Path: fmt.Sprintf("examples/%s.answers.example.json", spec.ID), ContentsBase64: encode(exampleJSON), ContentType: "application/json"},
		{Path: fmt.Sprintf("schemas/%s.answers.schema.json", spec.ID), ContentsBase64: encode(schemaJSON), ContentType: "application/json"},
		{Path: "README.md", ContentsBase64: encode([]byte(readme)), ContentType: "text/markdown"},
	}

	return Bundle{
		DirName:   spec.ID,
		Files:     files,
		SummaryMD: readme,
	}, nil
}

func deriveLinearFlow(spec *qaspec.FormSpec) qaspec.QAFlowSpec {
	steps := make(map[qaspec.StepID]qaspec.StepSpec, len(spec.Questions)+1)
	if len(spec.Questions) == 0 {
		steps[qaspec.EndStep] = qaspec.StepSpec{Kind: qaspec.StepEnd}
		return qaspec.QAFlowSpec{Entry: qaspec.EndStep, Steps: steps}
	}

	for i, q := range spec.Questions {
		id := qaspec.StepID(q.ID)
		next := qaspec.EndStep
		if i+1 < len(spec.Questions) {
			next = qaspec.StepID(spec.Questions[i+1].ID)
		}
		steps[id] = qaspec.StepSpec{Kind: qaspec.StepQuestion, QuestionID: q.ID, Next: next}
	}
	steps[qaspec.EndStep] = qaspec.StepSpec{Kind: qaspec.StepEnd}

	return qaspec.QAFlowSpec{
		Entry: qaspec.StepID(spec.Questions[0].ID),
		Steps: steps,
	}
}

func buildReadme(spec *qaspec.FormSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", spec.Title)
	if spec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Description)
	}
	fmt.Fprintf(&b, "Generated form bundle for `%s` (version %s).\n\n", spec.ID, spec.Version)
	b.WriteString("## Files\n\n")
	fmt.Fprintf(&b, "- `forms/%s.form.json` — the form specification\n", spec.ID)
	fmt.Fprintf(&b, "- `flows/%s.qaflow.json` — the step graph\n", spec.ID)
	fmt.Fprintf(&b, "- `examples/%s.answers.example.json` — a representative answer set\n", spec.ID)
	fmt.Fprintf(&b, "- `schemas/%s.answers.schema.json` — the answer set's JSON Schema\n", spec.ID)
	return b.String()
}

func encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
