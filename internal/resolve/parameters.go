package resolve

import (
	"fmt"
	"maps"

	"manifest-pipeline/internal/manifest"
)

const (
	keyClassName        = "class_name"
	typeCustomComponent = "CustomComponent"
	jsonSchemaObject    = "object"
	jsonSchemaNull      = "null"
)

// transformer assigns default types and pushes $parameters down the tree.
type transformer struct {
	inferTypes bool
}

// propagate returns the component with types inferred and parameters merged.
// fieldID is "<ParentType>.<field>" for the position the mapping occupies.
// Mappings that are not components are returned unchanged.
func (t *transformer) propagate(fieldID string, node map[string]any, parentParams map[string]any) map[string]any {
	out := maps.Clone(node)

	if _, typed := out[manifest.KeyType]; !typed && t.inferTypes {
		if _, custom := out[keyClassName]; custom {
			out[manifest.KeyType] = typeCustomComponent
		} else if found, ok := defaultComponentTypes[fieldID]; ok {
			out[manifest.KeyType] = found
		}
	}

	if _, typed := out[manifest.KeyType]; !typed || isJSONSchemaObject(out) {
		return node
	}

	params := maps.Clone(parentParams)
	if params == nil {
		params = make(map[string]any)
	}

	if own, ok := out[manifest.KeyParameters].(map[string]any); ok {
		maps.Copy(params, own)
	}

	delete(out, manifest.KeyParameters)

	for name, value := range params {
		if current, ok := out[name]; !ok || current == nil {
			out[name] = manifest.DeepCopy(value)
		}
	}

	componentType := fmt.Sprint(out[manifest.KeyType])

	for _, field := range manifest.SortedKeys(out) {
		// A parameter named like the field would be pushed back into itself.
		childParams := params
		if _, clash := params[field]; clash {
			childParams = maps.Clone(params)
			delete(childParams, field)
		}

		childID := componentType + "." + field

		switch v := out[field].(type) {
		case map[string]any:
			out[field] = t.propagate(childID, v, childParams)
		case []any:
			items := make([]any, len(v))

			for i, item := range v {
				if m, ok := item.(map[string]any); ok {
					items[i] = t.propagate(childID, m, childParams)
				} else {
					items[i] = item
				}
			}

			out[field] = items
		}
	}

	if len(params) > 0 {
		out[manifest.KeyParameters] = manifest.DeepCopy(params)
	}

	return out
}

// isJSONSchemaObject reports whether m is a JSON schema rather than a component.
func isJSONSchemaObject(m map[string]any) bool {
	switch t := m[manifest.KeyType].(type) {
	case string:
		return t == jsonSchemaObject
	case []any:
		return len(t) == 2 && t[0] == jsonSchemaNull && t[1] == jsonSchemaObject
	default:
		return false
	}
}
