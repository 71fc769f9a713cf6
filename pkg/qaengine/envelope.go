package qaengine

import "encoding/json"

// RuntimeContext is the normalized runtime context envelope: the
// {payload, state, config, answers, secrets?} bundle plus the
// rendering-only fields (locale, i18n flags) that travel alongside it.
type RuntimeContext struct {
	Payload any
	State   any
	Config  any
	Secrets any

	Locale       string
	I18nResolved bool
	I18nDebug    bool

	SecretsHostAvailable bool
}

type wrappedEnvelope struct {
	Ctx *struct {
		Payload              any  `json:"payload"`
		State                any  `json:"state"`
		Config               any  `json:"config"`
		Secrets              any  `json:"secrets"`
		SecretsHostAvailable bool `json:"secrets_host_available"`
	} `json:"ctx"`
	Locale       string `json:"locale"`
	I18nResolved bool   `json:"i18n_resolved"`
	I18nDebug    bool   `json:"i18n_debug"`
}

// parseRuntimeContext accepts either a direct payload value (legacy)
// or the {ctx:{...}, locale?, i18n_resolved?, i18n_debug?} wrapper.
// Unknown envelope fields are silently ignored for forward
// compatibility, per the wrapper shape's own contract.
func parseRuntimeContext(raw json.RawMessage) (RuntimeContext, error) {
	if len(raw) == 0 {
		return RuntimeContext{}, nil
	}

	var wrapped wrappedEnvelope
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return RuntimeContext{}, err
	}

	if wrapped.Ctx != nil {
		rc := RuntimeContext{
			Payload:      wrapped.Ctx.Payload,
			State:        wrapped.Ctx.State,
			Config:       wrapped.Ctx.Config,
			Secrets:      wrapped.Ctx.Secrets,
			Locale:       wrapped.Locale,
			I18nResolved: wrapped.I18nResolved,
			I18nDebug:    wrapped.I18nDebug,
		}
		rc.SecretsHostAvailable = wrapped.Ctx.SecretsHostAvailable || configFlag(wrapped.Ctx.Config)
		return rc, nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RuntimeContext{}, err
	}
	return RuntimeContext{Payload: payload}, nil
}

// configFlag reads secrets_host_available from a config tree when the
// caller set it there instead of directly on ctx.
func configFlag(config any) bool {
	m, ok := config.(map[string]any)
	if !ok {
		return false
	}
	v, ok := m["secrets_host_available"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
