package qabundle

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/internal/sandbox"
)

// DevWriter persists a Bundle to disk under a sandboxed output
// directory. This is the "dev writer" persistence mode: the default
// mode emits the Bundle as an event and never touches the filesystem,
// but a host that wants generated files on disk for local iteration
// uses a DevWriter instead.
type DevWriter struct {
	sandbox *sandbox.Sandbox
}

// NewDevWriter creates a DevWriter that only writes under the roots
// allowed by cfg.
func NewDevWriter(cfg sandbox.Config) (*DevWriter, error) {
	sb, err := sandbox.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("qabundle: building sandbox: %w", err)
	}
	return &DevWriter{sandbox: sb}, nil
}

// Write persists b under outputDir/b.DirName. outputDir must resolve to
// a path under one of the DevWriter's allowed roots; any file path
// within the bundle that escapes outputDir via ".." is rejected before
// anything is written. Existing files are only overwritten when force
// is true.
func (w *DevWriter) Write(outputDir string, b Bundle, force bool) error {
	if err := w.sandbox.CheckPath(outputDir); err != nil {
		return fmt.Errorf("qabundle: output dir rejected: %w", err)
	}

	root := filepath.Join(outputDir, b.DirName)

	for _, f := range b.Files {
		rel, err := filepath.Rel(root, filepath.Join(root, f.Path))
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("qabundle: file %q escapes bundle root", f.Path)
		}
	}

	for _, f := range b.Files {
		dest := filepath.Join(root, f.Path)

		data, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
		if err != nil {
			return fmt.Errorf("qabundle: decode %q: %w", f.Path, err)
		}
		if err := w.sandbox.CheckFileSize(int64(len(data))); err != nil {
			return fmt.Errorf("qabundle: %q: %w", f.Path, err)
		}

		if !force {
			if _, err := os.Stat(dest); err == nil {
				return fmt.Errorf("qabundle: %q already exists; use force to overwrite", dest)
			}
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("qabundle: creating directory for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("qabundle: writing %q: %w", f.Path, err)
		}
	}

	return nil
}
