package qarender

// JSONUI projects the payload into the {form_id, status, next_question_id,
// progress, questions, schema} document shape consumed by JSON-driven
// frontends.
func JSONUI(p Payload) map[string]any {
	questions := make([]map[string]any, 0, len(p.Questions))
	for _, q := range p.Questions {
		entry := map[string]any{
			"id":          q.ID,
			"title":       q.Title,
			"description": nilIfEmpty(q.Description),
			"type":        string(q.Type),
			"required":    q.Required,
			"visible":     q.Visible,
			"secret":      q.Secret,
		}
		if q.Default != nil {
			entry["default"] = q.Default
		}
		if q.CurrentValue != nil {
			entry["current_value"] = q.CurrentValue
		}
		if len(q.Choices) > 0 {
			entry["choices"] = q.Choices
		}
		if p.I18nDebug {
			entry["title_key"] = q.TitleKey
			entry["description_key"] = q.DescKey
		}
		questions = append(questions, entry)
	}

	doc := map[string]any{
		"form_id":      p.FormID,
		"form_title":   p.FormTitle,
		"form_version": p.FormVersion,
		"status":       string(p.Status),
		"progress": map[string]any{
			"answered": p.Progress.Answered,
			"total":    p.Progress.Total,
		},
		"help":      nilIfEmpty(p.Help),
		"questions": questions,
		"schema":    p.Schema,
	}
	if p.NextQuestionID != "" {
		doc["next_question_id"] = p.NextQuestionID
	}
	if len(p.Errors) > 0 {
		errs := make([]map[string]any, 0, len(p.Errors))
		for _, e := range p.Errors {
			errs = append(errs, map[string]any{
				"question_id": e.QuestionID,
				"path":        e.Path,
				"code":        e.Code,
				"message":     e.Message,
			})
		}
		doc["errors"] = errs
	}
	return doc
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
