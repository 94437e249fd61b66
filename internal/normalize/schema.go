package normalize

import (
	_ "embed"
	"fmt"
	"sync"

	"manifest-pipeline/internal/diagnostic"
	"manifest-pipeline/internal/manifest"
)

// Diagnostic codes reported by the normalizer.
const (
	CodeNormalizationSkip = "normalization_skip"
	CodeSchemaConflict    = "schema_conflict"
	CodeSchemaSkipped     = "schema_skipped"
	CodeLinked            = "linked"
	CodeTie               = "tie_not_promoted"
)

const (
	schemaKeyDefinitions = "definitions"
	schemaKeyProperties  = "properties"
	schemaKeyLinkable    = "linkable"
)

//go:embed component_schema.yaml
var componentSchemaData []byte

var parseComponentSchema = sync.OnceValues(func() (map[string]any, error) {
	return manifest.Parse(componentSchemaData)
})

// DefaultComponentSchema returns a private copy of the built-in component
// schema. It declares which HttpRequester fields are linkable and is also a
// valid JSON Schema for the manifest root.
func DefaultComponentSchema() (map[string]any, error) {
	schema, err := parseComponentSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in component schema: %w", err)
	}

	return manifest.DeepCopy(schema), nil
}

// LinkableFields reads the linkable fields of every component type declared
// in schema. Types with malformed definitions are skipped and reported.
// Field lists are sorted.
func LinkableFields(schema map[string]any) (map[string][]string, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	fields := make(map[string][]string)

	raw, ok := schema[schemaKeyDefinitions]
	if !ok {
		diags.AddWarning(CodeNormalizationSkip, "component schema has no definitions; nothing is linkable", "", "")
		return fields, diags
	}

	definitions, ok := raw.(map[string]any)
	if !ok {
		diags.AddWarning(CodeNormalizationSkip,
			fmt.Sprintf("component schema definitions must be a mapping, got %T", raw), "", "")

		return fields, diags
	}

	for _, typeName := range manifest.SortedKeys(definitions) {
		def, ok := definitions[typeName].(map[string]any)
		if !ok {
			diags.AddWarning(CodeNormalizationSkip, "definition is not a mapping", typeName, "")
			continue
		}

		rawProps, ok := def[schemaKeyProperties]
		if !ok {
			continue
		}

		props, ok := rawProps.(map[string]any)
		if !ok {
			diags.AddWarning(CodeNormalizationSkip, "properties is not a mapping", typeName, "")
			continue
		}

		linkable, valid := linkableProperties(props)
		if !valid {
			diags.AddWarning(CodeNormalizationSkip, "malformed property definition", typeName, "")
			continue
		}

		if len(linkable) > 0 {
			fields[typeName] = linkable
		}
	}

	return fields, diags
}

func linkableProperties(props map[string]any) ([]string, bool) {
	var linkable []string

	for _, name := range manifest.SortedKeys(props) {
		prop, ok := props[name].(map[string]any)
		if !ok {
			// Boolean schemas are legal JSON Schema and never linkable.
			if _, isBool := props[name].(bool); isBool {
				continue
			}

			return nil, false
		}

		switch flag := prop[schemaKeyLinkable].(type) {
		case nil:
		case bool:
			if flag {
				linkable = append(linkable, name)
			}
		default:
			return nil, false
		}
	}

	return linkable, true
}
