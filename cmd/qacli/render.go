package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
)

// handleRender implements `qacli render <form.json> [--target=text|json_ui|card] [--answers=file.json]`.
// Unlike the wizard, it is non-interactive: it renders one snapshot and
// exits, which is what a script driving the engine through its JSON
// surface needs.
func handleRender(engine *qaengine.Engine) error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: qacli render <form.json> [--target=text|json_ui|card] [--answers=file.json]")
		return nil
	}
	formPath := os.Args[2]
	target := qaengine.TargetText
	answersPath := ""
	for _, arg := range os.Args[3:] {
		switch {
		case strings.HasPrefix(arg, "--target="):
			target = qaengine.RenderTarget(strings.TrimPrefix(arg, "--target="))
		case strings.HasPrefix(arg, "--answers="):
			answersPath = strings.TrimPrefix(arg, "--answers=")
		}
	}

	raw, err := os.ReadFile(formPath)
	if err != nil {
		return fmt.Errorf("read form: %w", err)
	}
	formID, _, err := engine.LoadForm(raw)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}

	answers := map[string]any{}
	if answersPath != "" {
		answersRaw, err := os.ReadFile(answersPath)
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}
		if err := json.Unmarshal(answersRaw, &answers); err != nil {
			return fmt.Errorf("parse answers: %w", err)
		}
	}

	out, err := engine.Render(formID, nil, answers, target)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	switch target {
	case qaengine.TargetText:
		fmt.Println(out.Text)
	case qaengine.TargetJSONUI:
		return printJSON(out.JSONUI)
	case qaengine.TargetCard:
		return printJSON(out.Card)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
