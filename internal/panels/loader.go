package panels

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// LoadFile loads and parses a YAML definitions file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panels file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File and validates every definition.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse panels YAML: %w", err)
	}

	applyDefaults(&f)

	if err := validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Panels {
		d := &f.Panels[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.Field == "" {
			d.Field = core.DefaultOptions().LabelFor(d.Name)
		}
	}
}

// validate reports structural problems in all definitions together.
// Option values are checked when a Registry is built.
func validate(f *File) error {
	var errs []error
	seen := make(map[string]bool, len(f.Panels))

	for i, d := range f.Panels {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("panel %d: name is required", i+1))
			continue
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("panel %q: defined more than once", d.Name))
		}
		seen[d.Name] = true

		if s := d.Source; s != nil && (s.Table == "" || s.IDColumn == "" || s.JSONColumn == "") {
			errs = append(errs, fmt.Errorf("panel %q: source needs table, id_column and json_column", d.Name))
		}
	}
	return errors.Join(errs...)
}
