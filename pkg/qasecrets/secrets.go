// Package qasecrets implements the secrets access policy: allow/deny
// glob matching and read/write gates, with deterministic stable error
// codes. Secret values never appear in any error this package returns.
package qasecrets

import (
	"strings"

	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
)

// ErrorCode enumerates the stable, host-facing secret policy error
// codes.
type ErrorCode string

const (
	ErrSecretAccessDenied    ErrorCode = "secret_access_denied"
	ErrSecretHostUnavailable ErrorCode = "secret_host_unavailable"
)

// Error is a policy denial. Key is the path that was denied, never the
// secret value.
type Error struct {
	Code ErrorCode
	Key  string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Key
}

// Policy wraps a qaspec.SecretsPolicy with the read/write gate logic.
type Policy struct {
	spec qaspec.SecretsPolicy
}

// New wraps a spec-declared secrets policy.
func New(spec qaspec.SecretsPolicy) Policy {
	return Policy{spec: spec}
}

// MayRead reports whether key may be read, or returns the typed denial
// reason. hostAvailable reflects ctx.secrets_host_available (or
// ctx.config.secrets_host_available) as normalized by the caller.
func (p Policy) MayRead(key string, hostAvailable bool) *Error {
	return p.check(key, p.spec.ReadEnabled, hostAvailable)
}

// MayWrite reports whether key may be written, or returns the typed
// denial reason.
func (p Policy) MayWrite(key string, hostAvailable bool) *Error {
	return p.check(key, p.spec.WriteEnabled, hostAvailable)
}

func (p Policy) check(key string, modeEnabled, hostAvailable bool) *Error {
	if !p.spec.Enabled || !modeEnabled {
		return &Error{Code: ErrSecretAccessDenied, Key: key}
	}
	if !hostAvailable {
		return &Error{Code: ErrSecretHostUnavailable, Key: key}
	}
	if !matchesAny(p.spec.Allow, key) {
		return &Error{Code: ErrSecretAccessDenied, Key: key}
	}
	if matchesAny(p.spec.Deny, key) {
		return &Error{Code: ErrSecretAccessDenied, Key: key}
	}
	return nil
}

// matchesAny reports whether key matches any of the given globs.
func matchesAny(globs []string, key string) bool {
	for _, g := range globs {
		if Match(g, key) {
			return true
		}
	}
	return false
}

// Match reports whether a dot-segmented glob matches key. "*" matches
// exactly one segment; "**" matches zero or more segments.
func Match(glob, key string) bool {
	return matchSegments(strings.Split(glob, "."), strings.Split(key, "."))
}

func matchSegments(glob, key []string) bool {
	if len(glob) == 0 {
		return len(key) == 0
	}
	head := glob[0]
	if head == "**" {
		if matchSegments(glob[1:], key) {
			return true
		}
		if len(key) == 0 {
			return false
		}
		return matchSegments(glob, key[1:])
	}
	if len(key) == 0 {
		return false
	}
	if head != "*" && head != key[0] {
		return false
	}
	return matchSegments(glob[1:], key[1:])
}
