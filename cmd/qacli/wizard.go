package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
	"github.com/BimaPangestu28/greentic-qa/pkg/qarender"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastate"
)

// verbosity controls how much the wizard presenter prints.
type verbosity int

const (
	verbosityClean verbosity = iota
	verbosityDebug
)

func verbosityFromDebug(debug bool) verbosity {
	if debug {
		return verbosityDebug
	}
	return verbosityClean
}

// wizardPresenter formats a qarender.Payload into terminal prompts, one
// question at a time, the way a line-oriented CLI session reads.
type wizardPresenter struct {
	verbosity     verbosity
	headerPrinted bool
}

func (p *wizardPresenter) showHeader(payload qarender.Payload) {
	if p.headerPrinted {
		return
	}
	p.headerPrinted = true
	fmt.Printf("=== %s ===\n", payload.FormTitle)
	if payload.Help != "" {
		fmt.Println(payload.Help)
	}
}

func (p *wizardPresenter) showStatus(payload qarender.Payload) {
	fmt.Printf("[%d/%d answered]\n", payload.Progress.Answered, payload.Progress.Total)
	if p.verbosity == verbosityDebug {
		p.printVisibleQuestions(payload)
		return
	}
	if payload.Status == qarender.StatusNeedInput && visibleCount(payload) == 0 {
		fmt.Println("warning: no visible questions remain, but the form is not complete")
	}
}

func (p *wizardPresenter) printVisibleQuestions(payload qarender.Payload) {
	for _, q := range payload.Questions {
		if !q.Visible {
			continue
		}
		fmt.Printf("  - %s (%s)%s\n", q.ID, q.Type, requiredSuffix(q.Required))
	}
}

func visibleCount(payload qarender.Payload) int {
	n := 0
	for _, q := range payload.Questions {
		if q.Visible {
			n++
		}
	}
	return n
}

func requiredSuffix(required bool) string {
	if required {
		return " *"
	}
	return ""
}

// promptContext carries the formatted prompt line for one question.
type promptContext struct {
	index int
	total int
	q     qarender.Question
	hint  string
}

func newPromptContext(q qarender.Question, progress qarender.Progress) promptContext {
	index := progress.Answered + 1
	if index < 1 {
		index = 1
	}
	return promptContext{index: index, total: progress.Total, q: q, hint: hintFor(q.Type, q.Choices)}
}

// hintFor returns the parenthesized input hint shown alongside a
// prompt, or "" when the question's type carries no fixed hint.
func hintFor(t qaspec.QuestionType, choices []string) string {
	switch t {
	case qaspec.TypeBoolean:
		return "(yes/no)"
	case qaspec.TypeInteger:
		return "(integer)"
	case qaspec.TypeNumber:
		return "(number)"
	case qaspec.TypeEnum:
		if len(choices) > 0 {
			return "(" + strings.Join(choices, "/") + ")"
		}
	}
	return ""
}

func (p *wizardPresenter) showPrompt(ctx promptContext) {
	reqMark := ""
	if ctx.q.Required {
		reqMark = "*"
	}
	hint := ""
	if ctx.hint != "" {
		hint = " " + ctx.hint
	}
	fmt.Printf("%d/%d %s%s%s\n", ctx.index, ctx.total, ctx.q.Title, reqMark, hint)
	if ctx.q.Description != "" {
		fmt.Printf("  %s\n", ctx.q.Description)
	}
	if p.verbosity == verbosityDebug && len(ctx.q.Choices) > 0 {
		fmt.Printf("  choices: %s\n", strings.Join(ctx.q.Choices, ", "))
	}
	fmt.Print("> ")
}

// answerParseError carries a user-facing message always shown and a
// debug-only message shown only in verbose mode, mirroring how a
// terminal wizard owns its own line-parsing diagnostics rather than
// delegating them to the engine.
type answerParseError struct {
	userMessage  string
	debugMessage string
}

func newAnswerParseError(userMessage, debugMessage string) *answerParseError {
	return &answerParseError{userMessage: userMessage, debugMessage: debugMessage}
}

func (e *answerParseError) Error() string { return e.userMessage }

func (p *wizardPresenter) showParseError(err *answerParseError) {
	fmt.Println(err.userMessage)
	if p.verbosity == verbosityDebug && err.debugMessage != "" {
		fmt.Println("  " + err.debugMessage)
	}
}

func (p *wizardPresenter) showCompletion(answers map[string]any) {
	fmt.Println("Done.")
	out, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

// parseAnswer converts one line of terminal input into a typed value
// for q's type. This is host I/O, not the engine's concern: the engine
// only ever sees the already-typed answer.
func parseAnswer(q qarender.Question, line string) (any, *answerParseError) {
	line = strings.TrimSpace(line)
	if line == "" {
		if q.Required {
			return nil, newAnswerParseError("a value is required", "empty input for required question "+q.ID)
		}
		return nil, nil
	}

	switch q.Type {
	case qaspec.TypeBoolean:
		switch strings.ToLower(line) {
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		return nil, newAnswerParseError("please answer yes or no", "unparseable boolean input: "+line)
	case qaspec.TypeInteger:
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, newAnswerParseError("please enter a whole number", err.Error())
		}
		return v, nil
	case qaspec.TypeNumber:
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, newAnswerParseError("please enter a number", err.Error())
		}
		return v, nil
	case qaspec.TypeEnum:
		for _, c := range q.Choices {
			if c == line {
				return line, nil
			}
		}
		return nil, newAnswerParseError("please choose one of: "+strings.Join(q.Choices, ", "), fmt.Sprintf("value %q not in choices", line))
	default:
		return line, nil
	}
}

// handleWizard implements `qacli wizard <form.json> [--debug] [--checkpoint=name]`.
func handleWizard(engine *qaengine.Engine, checkpoints qastate.Store) error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: qacli wizard <form.json> [--debug] [--checkpoint=name]")
		return nil
	}
	formPath := os.Args[2]
	debug := false
	checkpointName := ""
	for _, arg := range os.Args[3:] {
		switch {
		case arg == "--debug":
			debug = true
		case strings.HasPrefix(arg, "--checkpoint="):
			checkpointName = strings.TrimPrefix(arg, "--checkpoint=")
		}
	}

	raw, err := os.ReadFile(formPath)
	if err != nil {
		return fmt.Errorf("read form: %w", err)
	}

	formID, warnings, err := engine.LoadForm(raw)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Code, w.Message)
	}

	answers := map[string]any{}
	if checkpointName != "" && checkpoints != nil {
		if snap, restoreErr := checkpoints.Restore(formID, checkpointName); restoreErr == nil {
			answers = snap.Answers
			fmt.Fprintf(os.Stderr, "resumed from checkpoint %q (%d answers)\n", checkpointName, len(answers))
		}
	}

	presenter := &wizardPresenter{verbosity: verbosityFromDebug(debug)}
	scanner := bufio.NewScanner(os.Stdin)

	for {
		payload, err := engine.RenderPayload(formID, nil, answers)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}

		presenter.showHeader(payload)
		presenter.showStatus(payload)

		if payload.Status == qarender.StatusComplete {
			resp, err := engine.SubmitAll(formID, nil, answers)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			if resp.Status == qaengine.SubmitError {
				for _, e := range resp.Validation.Errors {
					fmt.Printf("  error: %s (%s) at %s\n", e.Message, e.Code, e.Path)
				}
				return fmt.Errorf("submission rejected")
			}
			answers = resp.Answers
			presenter.showCompletion(answers)
			if checkpointName != "" && checkpoints != nil {
				checkpoints.Save(formID, checkpointName, qastate.Snapshot{FormID: formID, StateToken: resp.StateToken, Answers: answers})
			}
			return nil
		}

		q, ok := findQuestion(payload, payload.NextQuestionID)
		if !ok {
			return fmt.Errorf("no next question but status is %q", payload.Status)
		}

		ctx := newPromptContext(q, payload.Progress)
		presenter.showPrompt(ctx)

		if !scanner.Scan() {
			return nil
		}
		value, parseErr := parseAnswer(q, scanner.Text())
		if parseErr != nil {
			presenter.showParseError(parseErr)
			continue
		}

		resp, err := engine.SubmitPatch(formID, nil, answers, q.ID, value)
		if err != nil {
			return fmt.Errorf("submit %s: %w", q.ID, err)
		}
		if resp.Status == qaengine.SubmitError {
			for _, e := range resp.Validation.Errors {
				fmt.Printf("  error: %s (%s)\n", e.Message, e.Code)
			}
			continue
		}
		answers = resp.Answers

		if checkpointName != "" && checkpoints != nil {
			checkpoints.Save(formID, checkpointName, qastate.Snapshot{FormID: formID, StateToken: resp.StateToken, Answers: answers})
		}
	}
}

func findQuestion(payload qarender.Payload, id string) (qarender.Question, bool) {
	for _, q := range payload.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return qarender.Question{}, false
}
