package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
)

// handleValidate implements `qacli validate <form.json>`. It loads the
// form through the same path LoadForm always takes (include expansion
// included) and reports any load-time warnings or errors; it does not
// check a specific answer set, since there may be none yet.
func handleValidate() error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: qacli validate <form.json>")
		return nil
	}
	formPath := os.Args[2]

	raw, err := os.ReadFile(formPath)
	if err != nil {
		return fmt.Errorf("read form: %w", err)
	}

	engine := qaengine.New()
	formID, warnings, err := engine.LoadForm(raw)
	if err != nil {
		fmt.Printf("Form %q is invalid:\n  %v\n", filepath.Base(formPath), err)
		return fmt.Errorf("validation failed")
	}

	if len(warnings) == 0 {
		fmt.Printf("Form %q is valid.\n", formID)
		return nil
	}

	fmt.Printf("Form %q loaded with %d warning(s):\n", formID, len(warnings))
	for _, w := range warnings {
		fmt.Printf("  - %s: %s\n", w.Code, w.Message)
	}
	return nil
}
