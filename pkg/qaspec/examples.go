package qaspec

// GenerateExampleAnswers produces a representative answer set covering
// every currently visible, non-computed question, using each question's configured
// default when present and a type-appropriate placeholder otherwise.
func GenerateExampleAnswers(spec *FormSpec, visible map[string]bool) map[string]any {
	answers := map[string]any{}
	for _, q := range spec.Questions {
		if !visible[q.ID] || q.Computed != nil {
			continue
		}
		answers[q.ID] = exampleValue(q)
	}
	return answers
}

func exampleValue(q QuestionSpec) any {
	if q.Default != nil {
		return q.Default
	}
	switch q.Type {
	case TypeString:
		return "example-" + q.ID
	case TypeInteger:
		return float64(1)
	case TypeNumber:
		return float64(1)
	case TypeBoolean:
		return false
	case TypeEnum:
		if len(q.Enum) > 0 {
			return q.Enum[0]
		}
		return ""
	case TypeListRecord:
		record := map[string]any{}
		for _, f := range q.Fields {
			record[f.ID] = exampleValue(f)
		}
		return []any{record}
	default:
		return nil
	}
}
