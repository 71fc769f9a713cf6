package qaspec

import (
	"encoding/json"
	"fmt"
)

// Warning is a non-fatal, load-time observation — e.g. an unknown
// config key — that must never be silently dropped.
type Warning struct {
	Code    string
	Message string
}

var wrapperKeys = map[string]bool{
	"form_spec_json":  true,
	"include_registry": true,
}

// LoadForm normalizes either accepted config envelope shape into a
// FormSpec plus a parsed include registry (form_ref -> FormSpec),
// returning warnings for any unrecognized top-level wrapper keys
// instead of silently ignoring them.
func LoadForm(raw json.RawMessage) (*FormSpec, map[string]*FormSpec, []Warning, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, nil, fmt.Errorf("qaspec: invalid config envelope: %w", err)
	}

	var formSpecRaw json.RawMessage
	registryRaw := map[string]json.RawMessage{}
	var warnings []Warning

	if inner, ok := probe["form_spec_json"]; ok {
		formSpecRaw = inner
		if reg, ok := probe["include_registry"]; ok {
			if err := json.Unmarshal(reg, &registryRaw); err != nil {
				return nil, nil, nil, fmt.Errorf("qaspec: invalid include_registry: %w", err)
			}
		}
		for key := range probe {
			if !wrapperKeys[key] {
				warnings = append(warnings, Warning{Code: "unknown_config_key", Message: fmt.Sprintf("unrecognized config envelope key %q", key)})
			}
		}
	} else {
		// Legacy shape: the whole payload is the FormSpec itself.
		formSpecRaw = raw
	}

	var form FormSpec
	if err := json.Unmarshal(formSpecRaw, &form); err != nil {
		return nil, nil, nil, fmt.Errorf("qaspec: invalid form spec: %w", err)
	}

	registry := make(map[string]*FormSpec, len(registryRaw))
	for ref, specRaw := range registryRaw {
		var sub FormSpec
		if err := json.Unmarshal(specRaw, &sub); err != nil {
			return nil, nil, nil, fmt.Errorf("qaspec: invalid include_registry entry %q: %w", ref, err)
		}
		registry[ref] = &sub
	}

	return &form, registry, warnings, nil
}
