package qastate

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndRestore(t *testing.T) {
	store := openTestStore(t)

	snap := Snapshot{FormID: "onboarding", StateToken: "tok-1", Answers: map[string]any{"id": "foo"}}
	if err := store.Save("onboarding", "before-submit", snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored, err := store.Restore("onboarding", "before-submit")
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.StateToken != "tok-1" || restored.Answers["id"] != "foo" {
		t.Errorf("unexpected restored snapshot: %+v", restored)
	}
}

func TestRestoreUnknownCheckpointErrors(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Restore("onboarding", "nope"); err == nil {
		t.Fatal("expected an error for an unknown checkpoint")
	}
}

func TestListScopedPerForm(t *testing.T) {
	store := openTestStore(t)

	store.Save("onboarding", "a", Snapshot{FormID: "onboarding", StateToken: "tok-a"})
	store.Save("onboarding", "b", Snapshot{FormID: "onboarding", StateToken: "tok-b"})
	store.Save("other", "c", Snapshot{FormID: "other", StateToken: "tok-c"})

	infos, err := store.List("onboarding")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 checkpoints for onboarding, got %d", len(infos))
	}

	other, err := store.List("other")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(other) != 1 || other[0].StateToken != "tok-c" {
		t.Errorf("unexpected checkpoints for other form: %+v", other)
	}
}

func TestDeleteRemovesCheckpoint(t *testing.T) {
	store := openTestStore(t)
	store.Save("onboarding", "a", Snapshot{FormID: "onboarding", StateToken: "tok-a"})

	if err := store.Delete("onboarding", "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Restore("onboarding", "a"); err == nil {
		t.Fatal("expected restore of a deleted checkpoint to error")
	}
}

func TestListUnknownFormReturnsEmpty(t *testing.T) {
	store := openTestStore(t)
	infos, err := store.List("nope")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no checkpoints for an unknown form, got %v", infos)
	}
}
