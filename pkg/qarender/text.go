package qarender

import (
	"fmt"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// Text renders the payload as deterministic, human-friendly plain text.
func Text(p Payload) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("Form: %s (%s)", p.FormTitle, p.FormID))
	lines = append(lines, fmt.Sprintf("Status: %s (%d/%d)", p.Status, p.Progress.Answered, p.Progress.Total))
	if p.Help != "" {
		lines = append(lines, fmt.Sprintf("Help: %s", p.Help))
	}

	for _, e := range p.Errors {
		lines = append(lines, fmt.Sprintf("Error: %s (%s) at %s", e.Message, e.Code, e.Path))
	}

	if p.NextQuestionID != "" {
		lines = append(lines, fmt.Sprintf("Next question: %s", p.NextQuestionID))
		if q := findQuestion(p.Questions, p.NextQuestionID); q != nil {
			lines = append(lines, fmt.Sprintf("  Title: %s", q.Title))
			if q.Description != "" {
				lines = append(lines, fmt.Sprintf("  Description: %s", q.Description))
			}
			if q.Required {
				lines = append(lines, "  Required: yes")
			}
			if q.Type == qaspec.TypeBoolean {
				lines = append(lines, "  Hint: (y/n)")
			}
			if q.Default != nil {
				lines = append(lines, fmt.Sprintf("  Default: %s", displayValue(q.Default)))
			}
			if q.CurrentValue != nil {
				lines = append(lines, fmt.Sprintf("  Current value: %s", displayValue(q.CurrentValue)))
			} else if q.Secret {
				lines = append(lines, "  Current value: [secret]")
			}
		}
	} else {
		lines = append(lines, "All visible questions are answered.")
	}

	lines = append(lines, "Visible questions:")
	for _, q := range p.Questions {
		if !q.Visible {
			continue
		}
		entry := fmt.Sprintf(" - %s (%s)", q.ID, q.Title)
		if q.Required {
			entry += " [required]"
		}
		if q.Secret {
			if q.HasValue {
				entry += " = [secret]"
			}
		} else if q.CurrentValue != nil {
			entry += " = " + displayValue(q.CurrentValue)
		}
		lines = append(lines, entry)
	}

	return strings.Join(lines, "\n")
}

func findQuestion(questions []Question, id string) *Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}

func displayValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return trimFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}
