package qarender

import (
	"strconv"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// SubmitMode enumerates the Action.Submit payload shapes a card can carry.
type SubmitMode string

const (
	SubmitPatch SubmitMode = "patch"
	SubmitAll   SubmitMode = "all"
)

// Card projects the payload into an Adaptive Card v1.3 document, using
// only the permitted body elements (TextBlock, Container, FactSet,
// Input.Text, Input.ChoiceSet, Input.Toggle) and actions (Action.Submit).
func Card(p Payload) map[string]any {
	body := []map[string]any{
		{
			"type":   "TextBlock",
			"text":   p.FormTitle,
			"weight": "Bolder",
			"size":   "Large",
			"wrap":   true,
		},
	}

	if p.Help != "" {
		body = append(body, map[string]any{"type": "TextBlock", "text": p.Help, "wrap": true})
	}

	body = append(body, map[string]any{
		"type": "FactSet",
		"facts": []map[string]any{
			{"title": "Answered", "value": strconv.Itoa(p.Progress.Answered)},
			{"title": "Total", "value": strconv.Itoa(p.Progress.Total)},
		},
	})

	var actions []map[string]any

	if p.NextQuestionID != "" {
		if q := findQuestion(p.Questions, p.NextQuestionID); q != nil {
			items := []map[string]any{
				{"type": "TextBlock", "text": q.Title, "weight": "Bolder", "wrap": true},
			}
			if q.Description != "" {
				items = append(items, map[string]any{"type": "TextBlock", "text": q.Description, "wrap": true, "spacing": "Small"})
			}
			container := map[string]any{"type": "Container", "items": items}
			if p.I18nDebug {
				container["title_key"] = q.TitleKey
				container["description_key"] = q.DescKey
			}
			body = append(body, container)
			body = append(body, questionInput(*q))

			actions = append(actions, map[string]any{
				"type":  "Action.Submit",
				"title": "Next",
				"data": map[string]any{
					"qa": map[string]any{
						"formId":     p.FormID,
						"mode":       string(SubmitPatch),
						"questionId": q.ID,
						"field":      "answer",
					},
				},
			})
		}
	} else {
		body = append(body, map[string]any{"type": "TextBlock", "text": "All visible questions are answered.", "wrap": true})
		actions = append(actions, map[string]any{
			"type":  "Action.Submit",
			"title": "Submit",
			"data": map[string]any{
				"qa": map[string]any{
					"formId": p.FormID,
					"mode":   string(SubmitAll),
				},
			},
		})
	}

	doc := map[string]any{
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"type":    "AdaptiveCard",
		"version": "1.3",
		"body":    body,
		"actions": actions,
	}
	if p.I18nDebug {
		doc["metadata"] = map[string]any{"qa": map[string]any{"i18n_debug": true}}
	}
	return doc
}

func questionInput(q Question) map[string]any {
	switch q.Type {
	case qaspec.TypeBoolean:
		input := map[string]any{
			"type":       "Input.Toggle",
			"id":         q.ID,
			"title":      q.Title,
			"isRequired": q.Required,
			"valueOn":    "true",
			"valueOff":   "false",
		}
		if q.CurrentValue != nil {
			if b, ok := q.CurrentValue.(bool); ok && b {
				input["value"] = "true"
			} else {
				input["value"] = "false"
			}
		}
		return input
	case qaspec.TypeEnum:
		choices := make([]map[string]any, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, map[string]any{"title": c, "value": c})
		}
		input := map[string]any{
			"type":       "Input.ChoiceSet",
			"id":         q.ID,
			"style":      "compact",
			"isRequired": q.Required,
			"choices":    choices,
		}
		if q.CurrentValue != nil {
			input["value"] = displayValue(q.CurrentValue)
		}
		return input
	default:
		input := map[string]any{
			"type":       "Input.Text",
			"id":         q.ID,
			"isRequired": q.Required,
		}
		if q.CurrentValue != nil {
			input["value"] = displayValue(q.CurrentValue)
		}
		return input
	}
}
