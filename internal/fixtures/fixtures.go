// Package fixtures embeds a small reference dataset and classifier artifacts
// for tests and demos.
package fixtures

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed reference/*
var referenceFS embed.FS

// Reference artifact names.
const (
	CompactDataset = "gesture_data_compact.csv"
	Model          = "model.json"
	Scaler         = "scaler.json"
	StaticDynamic  = "static_dynamic.json"
)

// ReadFile returns one reference file.
func ReadFile(name string) ([]byte, error) {
	data, err := referenceFS.ReadFile("reference/" + name)
	if err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", name, err)
	}
	return data, nil
}

// WriteReference copies the reference dataset and classifier artifacts into
// dir. Names listed in skip are left out.
func WriteReference(dir string, skip ...string) error {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	entries, err := fs.ReadDir(referenceFS, "reference")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || skipped[entry.Name()] {
			continue
		}
		data, err := ReadFile(entry.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("write fixture %s: %w", entry.Name(), err)
		}
	}
	return nil
}
