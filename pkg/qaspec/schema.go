package qaspec

// GenerateAnswerSchema produces a JSON-Schema-shaped description of the
// answers object a FormSpec accepts. Only currently visible questions
// are included as properties; invisible ones are omitted entirely
// rather than marked optional, since their shape may not even apply.
func GenerateAnswerSchema(spec *FormSpec, visible map[string]bool) map[string]any {
	properties := map[string]any{}
	required := []string{}

	for _, q := range spec.Questions {
		if !visible[q.ID] {
			continue
		}
		properties[q.ID] = questionSchema(q)
		if q.Required && q.Computed == nil {
			required = append(required, q.ID)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func questionSchema(q QuestionSpec) map[string]any {
	s := map[string]any{}
	switch q.Type {
	case TypeString:
		s["type"] = "string"
		if q.Pattern != "" {
			s["pattern"] = q.Pattern
		}
		if q.MinLen != nil {
			s["minLength"] = *q.MinLen
		}
		if q.MaxLen != nil {
			s["maxLength"] = *q.MaxLen
		}
	case TypeInteger:
		s["type"] = "integer"
		setRange(s, q)
	case TypeNumber:
		s["type"] = "number"
		setRange(s, q)
	case TypeBoolean:
		s["type"] = "boolean"
	case TypeEnum:
		s["type"] = "string"
		if len(q.Enum) > 0 {
			values := make([]any, len(q.Enum))
			for i, v := range q.Enum {
				values[i] = v
			}
			s["enum"] = values
		}
	case TypeListRecord:
		s["type"] = "array"
		if q.MinItems != nil {
			s["minItems"] = *q.MinItems
		}
		if q.MaxItems != nil {
			s["maxItems"] = *q.MaxItems
		}
		itemProps := map[string]any{}
		for _, f := range q.Fields {
			itemProps[f.ID] = questionSchema(f)
		}
		s["items"] = map[string]any{
			"type":       "object",
			"properties": itemProps,
		}
	}
	if q.Title != "" {
		s["title"] = q.Title
	}
	if q.Description != "" {
		s["description"] = q.Description
	}
	return s
}

func setRange(s map[string]any, q QuestionSpec) {
	if q.Min != nil {
		s["minimum"] = *q.Min
	}
	if q.Max != nil {
		s["maximum"] = *q.Max
	}
}
