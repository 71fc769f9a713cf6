package qaplan

import (
	"fmt"

	"github.com/BimaPangestu28/greentic-qa/pkg/qajsonptr"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastore"
)

// Store is the mutable {answers, state, config, payload_out} bundle an
// Executor takes exclusive access to for the duration of one apply
// call.
type Store struct {
	Answers    any
	State      any
	Config     any
	PayloadOut any
}

// SecretWriter is the host-provided callback an Executor calls for
// WriteSecret effects; the engine itself has no secret backend.
type SecretWriter interface {
	WriteSecret(path string, value any) error
}

// Execute applies plan.ValidatedPatch to Answers, then plan.Effects in
// the fixed order answers -> state -> config -> payload_out -> secret
// writes. The Executor is the only component that mutates; it fails
// when a WriteSecret effect is present without a SecretWriter, or when
// a patch op or effect path cannot be applied to its target tree.
func Execute(plan Plan, store *Store, secrets SecretWriter) error {
	for _, op := range plan.ValidatedPatch {
		updated, err := applyPatchOp(store.Answers, op)
		if err != nil {
			return fmt.Errorf("qaplan: applying validated_patch %s %s: %w", op.Op, op.Path, err)
		}
		store.Answers = updated
	}

	return executeEffects(plan.Effects, store, secrets)
}

// ApplyStoreOps executes a resolved store.Resolve() op list directly
// against store, applying the same fixed target order Execute uses
// for a Plan's effects. It exists for hosts that called the pure
// apply_store resolver (qastore.Resolve via qaengine.ApplyStore) and
// now want the result actually written, without routing a whole Plan
// back through Execute just to reach its effects.
func ApplyStoreOps(ops []qastore.Op, store *Store, secrets SecretWriter) error {
	return executeEffects(storeEffects(ops), store, secrets)
}

func executeEffects(effects []Effect, store *Store, secrets SecretWriter) error {
	for _, kind := range []EffectKind{EffectSetAnswer, EffectSetStatePath, EffectSetConfigPath, EffectSetPayloadOutPath} {
		for _, effect := range effects {
			if effect.Kind != kind {
				continue
			}
			if err := applyEffect(store, effect); err != nil {
				return err
			}
		}
	}

	for _, effect := range effects {
		if effect.Kind != EffectWriteSecret {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("qaplan: plan has a write_secret effect at %s but no SecretWriter was provided", effect.Path)
		}
		if err := secrets.WriteSecret(effect.Path, effect.Value); err != nil {
			return fmt.Errorf("qaplan: writing secret %s: %w", effect.Path, err)
		}
	}

	return nil
}

func applyEffect(store *Store, effect Effect) error {
	var err error
	switch effect.Kind {
	case EffectSetAnswer:
		store.Answers, err = qajsonptr.Set(store.Answers, effect.Path, effect.Value)
	case EffectSetStatePath:
		store.State, err = qajsonptr.Set(store.State, effect.Path, effect.Value)
	case EffectSetConfigPath:
		store.Config, err = qajsonptr.Set(store.Config, effect.Path, effect.Value)
	case EffectSetPayloadOutPath:
		store.PayloadOut, err = qajsonptr.Set(store.PayloadOut, effect.Path, effect.Value)
	}
	if err != nil {
		return fmt.Errorf("qaplan: applying effect %s at %s: %w", effect.Kind, effect.Path, err)
	}
	return nil
}

func applyPatchOp(root any, op PatchOp) (any, error) {
	switch op.Op {
	case "add", "replace":
		return qajsonptr.Set(root, op.Path, op.Value)
	case "remove":
		return qajsonptr.Delete(root, op.Path)
	default:
		return nil, fmt.Errorf("unsupported patch op %q", op.Op)
	}
}
