package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the serialization used when writing a manifest.
type Format string

const (
	// FormatYAML writes the manifest as YAML.
	FormatYAML Format = "yaml"
	// FormatJSON writes the manifest as indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected yaml or json)", s)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// LoadFile loads and parses a manifest from the given path.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML or JSON data into a manifest tree.
// JSON is accepted because it is a subset of YAML.
func Parse(data []byte) (map[string]any, error) {
	var raw any

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if raw == nil {
		return nil, errors.New("manifest is empty")
	}

	doc, ok := plain(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest root must be a mapping, got %T", raw)
	}

	return doc, nil
}

// plain converts decoder output into JSON-compatible values. Mappings with
// non-string keys are re-keyed by their printed form.
func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = plain(item)
		}

		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = plain(item)
		}

		return out
	case []any:
		for i, item := range t {
			t[i] = plain(item)
		}

		return t
	default:
		return v
	}
}

// Marshal serializes a manifest in the requested format.
func Marshal(doc map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest as JSON: %w", err)
		}

		return append(data, '\n'), nil
	case FormatYAML, "":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest as YAML: %w", err)
		}

		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile writes a manifest to the given path.
func WriteFile(doc map[string]any, path string, format Format) error {
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file %s: %w", path, err)
	}

	return nil
}
