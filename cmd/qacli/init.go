package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const templateDir = "templates"

// handleInit implements `qacli init [--template=X] [--output=Y]`. With
// no template given it lists the available ones instead of guessing.
func handleInit() error {
	template := ""
	output := ""
	for _, arg := range os.Args[2:] {
		switch {
		case strings.HasPrefix(arg, "--template="):
			template = strings.TrimPrefix(arg, "--template=")
		case strings.HasPrefix(arg, "--output="):
			output = strings.TrimPrefix(arg, "--output=")
		}
	}

	if template == "" {
		return listTemplates()
	}
	if output == "" {
		output = template + ".form.json"
	}
	return scaffoldFromTemplate(template, output)
}

func listTemplates() error {
	entries, err := os.ReadDir(templateDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no templates directory found")
			return nil
		}
		return fmt.Errorf("list templates: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".form.json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".form.json"))
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("no templates available")
		return nil
	}
	fmt.Println("Available templates:")
	for _, n := range names {
		fmt.Printf("  - %s\n", n)
	}
	fmt.Println("\nUsage: qacli init --template=<name> [--output=path]")
	return nil
}

func scaffoldFromTemplate(name, output string) error {
	src := filepath.Join(templateDir, name+".form.json")
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read template %q: %w", name, err)
	}

	if _, err := os.Stat(output); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", output)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Printf("Wrote %s from template %q.\n", output, name)
	fmt.Printf("Next: qacli wizard %s\n", output)
	return nil
}
