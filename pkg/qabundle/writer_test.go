package qabundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BimaPangestu28/greentic-qa/internal/sandbox"
)

func TestDevWriterWritesUnderAllowedRoot(t *testing.T) {
	root := t.TempDir()
	w, err := NewDevWriter(sandbox.Config{AllowedPaths: []string{root}})
	if err != nil {
		t.Fatalf("NewDevWriter failed: %v", err)
	}

	b := Bundle{
		DirName: "onboarding",
		Files: []File{
			{Path: "forms/onboarding.form.json", ContentsBase64: encode([]byte(`{"id":"onboarding"}`)), ContentType: "application/json"},
		},
	}

	if err := w.Write(root, b, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := filepath.Join(root, "onboarding", "forms", "onboarding.form.json")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected %q to exist: %v", want, err)
	}
	if string(data) != `{"id":"onboarding"}` {
		t.Errorf("unexpected contents: %s", data)
	}
}

func TestDevWriterRejectsOutsideAllowedRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	w, err := NewDevWriter(sandbox.Config{AllowedPaths: []string{root}})
	if err != nil {
		t.Fatalf("NewDevWriter failed: %v", err)
	}

	b := Bundle{DirName: "onboarding"}
	if err := w.Write(outside, b, false); err == nil {
		t.Fatal("expected an error writing outside the allowed root")
	}
}

func TestDevWriterRequiresForceToOverwrite(t *testing.T) {
	root := t.TempDir()
	w, err := NewDevWriter(sandbox.Config{AllowedPaths: []string{root}})
	if err != nil {
		t.Fatalf("NewDevWriter failed: %v", err)
	}

	b := Bundle{
		DirName: "onboarding",
		Files: []File{
			{Path: "README.md", ContentsBase64: encode([]byte("hello")), ContentType: "text/markdown"},
		},
	}

	if err := w.Write(root, b, false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := w.Write(root, b, false); err == nil {
		t.Fatal("expected a second write without force to fail")
	}
	if err := w.Write(root, b, true); err != nil {
		t.Fatalf("expected force=true to succeed, got: %v", err)
	}
}
