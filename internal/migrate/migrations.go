package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"manifest-pipeline/internal/manifest"
)

const (
	typeHTTPRequester = "HttpRequester"

	keyURLBase         = "url_base"
	keyURL             = "url"
	keyPath            = "path"
	keyRequestBodyJSON = "request_body_json"
	keyRequestBodyData = "request_body_data"
	keyRequestBody     = "request_body"
	keyType            = "type"
	keyValue           = "value"
	keyQuery           = "query"
)

// Request body component types.
const (
	RequestBodyJSONObject     = "RequestBodyJsonObject"
	RequestBodyGraphQL        = "RequestBodyGraphQL"
	RequestBodyPlainText      = "RequestBodyPlainText"
	RequestBodyData           = "RequestBodyData"
	RequestBodyURLEncodedForm = "RequestBodyUrlEncodedForm"
)

// constructors maps registry names to implementations.
var constructors = map[string]func() Migration{
	"HttpRequesterUrlBaseToUrl": func() Migration {
		return &renameField{name: "HttpRequesterUrlBaseToUrl", componentType: typeHTTPRequester, from: keyURLBase, to: keyURL}
	},
	"HttpRequesterPathToUrl": func() Migration {
		return &pathToURL{}
	},
	"HttpRequesterRequestBodyJsonDataToRequestBody": func() Migration {
		return &requestBody{}
	},
}

// KnownMigrations returns the sorted names a registry file may refer to.
func KnownMigrations() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// renameField moves a field of one component type to a new key. An existing
// value under the new key is replaced.
type renameField struct {
	name          string
	componentType string
	from          string
	to            string
}

func (m *renameField) Name() string {
	return m.name
}

func (m *renameField) ShouldMigrate(component map[string]any) bool {
	return isType(component, m.componentType) && has(component, m.from)
}

func (m *renameField) Migrate(component, _ map[string]any) error {
	component[m.to] = component[m.from]
	delete(component, m.from)

	return nil
}

func (m *renameField) Validate(component map[string]any) bool {
	return !has(component, m.from) && has(component, m.to)
}

// pathToURL joins HttpRequester.path onto HttpRequester.url.
type pathToURL struct{}

func (m *pathToURL) Name() string {
	return "HttpRequesterPathToUrl"
}

func (m *pathToURL) ShouldMigrate(component map[string]any) bool {
	return isType(component, typeHTTPRequester) && has(component, keyPath)
}

func (m *pathToURL) Migrate(component, root map[string]any) error {
	rawURL, ok := component[keyURL]
	if !ok {
		return errors.New("requester has a path but no url")
	}

	base, err := derefString(root, rawURL, keyURL)
	if err != nil {
		return err
	}

	path, err := derefString(root, component[keyPath], keyPath)
	if err != nil {
		return err
	}

	if path != "" {
		component[keyURL] = JoinURL(base, path)
	}

	delete(component, keyPath)

	return nil
}

func (m *pathToURL) Validate(component map[string]any) bool {
	return !has(component, keyPath) && has(component, keyURL)
}

// JoinURL joins base and path with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// requestBody replaces request_body_json and request_body_data with a typed
// request_body component.
type requestBody struct{}

func (m *requestBody) Name() string {
	return "HttpRequesterRequestBodyJsonDataToRequestBody"
}

func (m *requestBody) ShouldMigrate(component map[string]any) bool {
	return isType(component, typeHTTPRequester) &&
		(has(component, keyRequestBodyJSON) || has(component, keyRequestBodyData))
}

func (m *requestBody) Migrate(component, root map[string]any) error {
	if has(component, keyRequestBodyJSON) && has(component, keyRequestBodyData) {
		return fmt.Errorf("both %s and %s are set", keyRequestBodyJSON, keyRequestBodyData)
	}

	if has(component, keyRequestBody) {
		return fmt.Errorf("%s is already set", keyRequestBody)
	}

	key := keyRequestBodyData
	if has(component, keyRequestBodyJSON) {
		key = keyRequestBodyJSON
	}

	value, err := deref(root, component[key])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	bodyType, bodyValue, err := ClassifyRequestBody(key == keyRequestBodyJSON, manifest.DeepCopy(value))
	if err != nil {
		return err
	}

	component[keyRequestBody] = map[string]any{
		keyType:  bodyType,
		keyValue: bodyValue,
	}
	delete(component, key)

	return nil
}

func (m *requestBody) Validate(component map[string]any) bool {
	if has(component, keyRequestBodyJSON) || has(component, keyRequestBodyData) {
		return false
	}

	body, ok := component[keyRequestBody].(map[string]any)
	if !ok {
		return false
	}

	_, ok = body[keyType].(string)

	return ok
}

// ClassifyRequestBody picks the request body type for a legacy
// request_body_json (isJSON) or request_body_data value and returns the
// value to store under request_body.value.
func ClassifyRequestBody(isJSON bool, value any) (string, any, error) {
	switch v := value.(type) {
	case map[string]any:
		if !isJSON {
			return RequestBodyData, v, nil
		}

		if _, ok := v[keyQuery]; ok {
			return RequestBodyGraphQL, v, nil
		}

		return RequestBodyJSONObject, v, nil
	case string:
		if !isJSON {
			return RequestBodyURLEncodedForm, v, nil
		}

		// The string is only decoded to detect a query, the value stays as written.
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			if _, ok := decoded[keyQuery]; ok {
				return RequestBodyGraphQL, v, nil
			}
		}

		return RequestBodyPlainText, v, nil
	default:
		field := keyRequestBodyData
		if isJSON {
			field = keyRequestBodyJSON
		}

		return "", nil, fmt.Errorf("unsupported %s value of type %T", field, value)
	}
}

func derefString(root map[string]any, v any, field string) (string, error) {
	resolved, err := deref(root, v)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}

	s, ok := resolved.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", field, resolved)
	}

	return s, nil
}
