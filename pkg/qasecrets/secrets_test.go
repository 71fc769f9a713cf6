package qasecrets

import (
	"testing"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

func disabledSpec() qaspec.SecretsPolicy {
	return qaspec.SecretsPolicy{}
}

func enabledSpecAllowAll() qaspec.SecretsPolicy {
	return qaspec.SecretsPolicy{
		Enabled:     true,
		ReadEnabled: true,
		Allow:       []string{"**"},
	}
}

func TestMatchSingleSegmentWildcard(t *testing.T) {
	if !Match("api.*", "api.key") {
		t.Error("expected api.* to match api.key")
	}
	if Match("api.*", "api.key.extra") {
		t.Error("expected api.* not to match api.key.extra")
	}
}

func TestMatchDoubleSegmentWildcard(t *testing.T) {
	if !Match("api.**", "api.key.extra") {
		t.Error("expected api.** to match api.key.extra")
	}
	if !Match("api.**", "api") {
		t.Error("expected api.** to match api itself (zero extra segments)")
	}
	if Match("api.**", "other.key") {
		t.Error("expected api.** not to match other.key")
	}
}

func TestMayReadDeniedWhenDisabled(t *testing.T) {
	p := New(disabledSpec())
	err := p.MayRead("api.key", true)
	if err == nil || err.Code != ErrSecretAccessDenied {
		t.Errorf("expected secret_access_denied, got %v", err)
	}
}

func TestMayReadHostUnavailable(t *testing.T) {
	p := New(enabledSpecAllowAll())
	err := p.MayRead("api.key", false)
	if err == nil || err.Code != ErrSecretHostUnavailable {
		t.Errorf("expected secret_host_unavailable, got %v", err)
	}
}

func TestMayReadAllowed(t *testing.T) {
	p := New(enabledSpecAllowAll())
	if err := p.MayRead("api.key", true); err != nil {
		t.Errorf("expected allowed read, got %v", err)
	}
}

func TestMayReadDenyTakesPrecedence(t *testing.T) {
	spec := enabledSpecAllowAll()
	spec.Deny = []string{"api.secret_key"}
	p := New(spec)
	if err := p.MayRead("api.secret_key", true); err == nil {
		t.Error("expected deny to take precedence over allow")
	}
	if err := p.MayRead("api.other_key", true); err != nil {
		t.Errorf("expected non-denied key to be allowed, got %v", err)
	}
}
