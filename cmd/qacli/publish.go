package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/internal/config"
	"github.com/BimaPangestu28/greentic-qa/internal/sandbox"
	"github.com/BimaPangestu28/greentic-qa/pkg/qabundle"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaexpr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qapublish"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// handlePublish implements:
//
//	qacli publish <form.json> --owner=O --repo=R [--answers=file.json]
//	             [--branch=B] [--base-path=P]
//	qacli publish <form.json> --local=dir [--answers=file.json] [--force]
//
// It builds the same bundle qaengine publishes as a qa.wizard.generated
// event and either commits it to a GitHub repository (one file per
// commit) or, with --local, writes it to disk through the same
// sandboxed DevWriter a host embedding the engine would use.
func handlePublish(engine *qaengine.Engine, platCfg config.PlatformConfig, cfg config.Config) error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: qacli publish <form.json> --owner=O --repo=R [--answers=file.json] [--branch=B] [--base-path=P]")
		fmt.Println("   or: qacli publish <form.json> --local=dir [--answers=file.json] [--force]")
		return nil
	}
	formPath := os.Args[2]
	target := qapublish.Target{}
	answersPath := ""
	localDir := ""
	force := false
	for _, arg := range os.Args[3:] {
		switch {
		case strings.HasPrefix(arg, "--owner="):
			target.Owner = strings.TrimPrefix(arg, "--owner=")
		case strings.HasPrefix(arg, "--repo="):
			target.Repo = strings.TrimPrefix(arg, "--repo=")
		case strings.HasPrefix(arg, "--branch="):
			target.Branch = strings.TrimPrefix(arg, "--branch=")
		case strings.HasPrefix(arg, "--base-path="):
			target.BasePath = strings.TrimPrefix(arg, "--base-path=")
		case strings.HasPrefix(arg, "--answers="):
			answersPath = strings.TrimPrefix(arg, "--answers=")
		case strings.HasPrefix(arg, "--local="):
			localDir = strings.TrimPrefix(arg, "--local=")
		case arg == "--force":
			force = true
		}
	}

	bundle, err := buildBundleFromForm(engine, formPath, answersPath)
	if err != nil {
		return err
	}

	if localDir != "" {
		return writeLocalBundle(cfg, localDir, bundle, force)
	}

	if target.Owner == "" {
		target.Owner = platCfg.GitHub.DefaultOwner
	}
	if target.Repo == "" {
		target.Repo = platCfg.GitHub.DefaultRepo
	}
	if target.Owner == "" || target.Repo == "" {
		return fmt.Errorf("--owner and --repo are required (or set github.default_owner/default_repo in platforms.yaml)")
	}
	if platCfg.GitHub.Token == "" {
		return fmt.Errorf("no GitHub token configured (set github.token in .qacli/platforms.yaml)")
	}

	client, err := qapublish.NewClient(platCfg.GitHub.Token)
	if err != nil {
		return fmt.Errorf("github client: %w", err)
	}

	results, err := client.PublishBundle(context.Background(), target, bundle, "qacli: publish "+bundle.DirName)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	for _, r := range results {
		action := "updated"
		if r.Created {
			action = "created"
		}
		fmt.Printf("%s %s (%s)\n", action, r.Path, r.CommitSHA)
	}
	return nil
}

// buildBundleFromForm loads formPath, submits its answer set (from
// answersPath, or empty), and builds the resulting bundle. It errors
// out rather than publishing a bundle for a form with validation
// errors, matching qaengine.PlanSubmitAll's own gate on the
// qa.wizard.generated event.
func buildBundleFromForm(engine *qaengine.Engine, formPath, answersPath string) (qabundle.Bundle, error) {
	raw, err := os.ReadFile(formPath)
	if err != nil {
		return qabundle.Bundle{}, fmt.Errorf("read form: %w", err)
	}
	formID, _, err := engine.LoadForm(raw)
	if err != nil {
		return qabundle.Bundle{}, fmt.Errorf("load form: %w", err)
	}

	answers := map[string]any{}
	if answersPath != "" {
		answersRaw, err := os.ReadFile(answersPath)
		if err != nil {
			return qabundle.Bundle{}, fmt.Errorf("read answers: %w", err)
		}
		if err := json.Unmarshal(answersRaw, &answers); err != nil {
			return qabundle.Bundle{}, fmt.Errorf("parse answers: %w", err)
		}
	}

	plan, err := engine.PlanSubmitAll(formID, nil, answers)
	if err != nil {
		return qabundle.Bundle{}, fmt.Errorf("submit: %w", err)
	}
	if len(plan.Errors) > 0 {
		for _, e := range plan.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s (%s) at %s\n", e.Message, e.Code, e.Path)
		}
		return qabundle.Bundle{}, fmt.Errorf("form has %d validation error(s); nothing published", len(plan.Errors))
	}

	specRaw, err := engine.GetFormSpec(formID)
	if err != nil {
		return qabundle.Bundle{}, fmt.Errorf("get form spec: %w", err)
	}
	var form qaspec.FormSpec
	if err := json.Unmarshal(specRaw, &form); err != nil {
		return qabundle.Bundle{}, fmt.Errorf("decode form spec: %w", err)
	}

	visible := map[string]bool{}
	for _, q := range form.Questions {
		v, _ := qaexpr.ResolveVisible(q.VisibleIf, answers, qaexpr.VisibilityVisible)
		visible[q.ID] = v
	}
	schema := qaspec.GenerateAnswerSchema(&form, visible)
	examples := qaspec.GenerateExampleAnswers(&form, visible)

	return qabundle.Build(&form, answers, schema, examples)
}

func writeLocalBundle(cfg config.Config, outputDir string, bundle qabundle.Bundle, force bool) error {
	sc := cfg.Sandbox
	if len(sc.AllowedRoots) == 0 {
		sc.AllowedRoots = []string{outputDir}
	}
	writer, err := qabundle.NewDevWriter(sandbox.Config{
		AllowedPaths: sc.AllowedRoots,
		DeniedPaths:  sc.DeniedPaths,
		MaxFileSize:  sc.MaxFileSize,
	})
	if err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	if err := writer.Write(outputDir, bundle, force); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	fmt.Printf("wrote %s/%s\n", outputDir, bundle.DirName)
	return nil
}
