package qastore

import (
	"testing"

	"github.com/BimaPangestu28/greentic-qa/pkg/qasecrets"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaspec"
	"github.com/BimaPangestu28/greentic-qa/pkg/qatemplate"
)

func ctxWithAnswers(answers map[string]any) qatemplate.Context {
	return qatemplate.Context{Answers: answers, State: map[string]any{}, Config: map[string]any{}, Payload: map[string]any{}}
}

func TestResolveLiteralValue(t *testing.T) {
	ops := []qaspec.StoreOp{{Target: qaspec.TargetState, Path: "/ready", Value: true}}
	resolved, err := Resolve(ops, ctxWithAnswers(nil), qasecrets.New(qaspec.SecretsPolicy{}), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Value != true {
		t.Errorf("got %v", resolved)
	}
}

func TestResolveTemplatedValue(t *testing.T) {
	ops := []qaspec.StoreOp{{Target: qaspec.TargetPayloadOut, Path: "/greeting", Value: "Hello {{answers.name}}", IsTemplate: true}}
	resolved, err := Resolve(ops, ctxWithAnswers(map[string]any{"name": "Ada"}), qasecrets.New(qaspec.SecretsPolicy{}), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved[0].Value != "Hello Ada" {
		t.Errorf("got %v", resolved[0].Value)
	}
}

func TestResolveBatchFailsAtomically(t *testing.T) {
	ops := []qaspec.StoreOp{
		{Target: qaspec.TargetState, Path: "/a", Value: "ok"},
		{Target: qaspec.TargetState, Path: "/b", Value: "{{answers.missing}}", IsTemplate: true},
	}
	resolved, err := Resolve(ops, ctxWithAnswers(nil), qasecrets.New(qaspec.SecretsPolicy{}), false)
	if err == nil {
		t.Fatal("expected a batch failure")
	}
	if resolved != nil {
		t.Errorf("expected no partial results on failure, got %v", resolved)
	}
}

func TestResolveSecretWriteDenied(t *testing.T) {
	ops := []qaspec.StoreOp{{Target: qaspec.TargetSecrets, Path: "/api/token", Value: "x"}}
	_, err := Resolve(ops, ctxWithAnswers(nil), qasecrets.New(qaspec.SecretsPolicy{}), true)
	if err == nil {
		t.Fatal("expected secret write to be denied under a disabled policy")
	}
}

func TestResolveSecretWriteAllowed(t *testing.T) {
	policy := qasecrets.New(qaspec.SecretsPolicy{Enabled: true, WriteEnabled: true, Allow: []string{"**"}})
	ops := []qaspec.StoreOp{{Target: qaspec.TargetSecrets, Path: "/api/token", Value: "x"}}
	resolved, err := Resolve(ops, ctxWithAnswers(nil), policy, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected one resolved op, got %v", resolved)
	}
}
