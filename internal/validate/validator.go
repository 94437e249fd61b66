package validate

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"manifest-pipeline/internal/diagnostic"
)

// CodeSchemaViolation marks a manifest that does not match the component schema.
const CodeSchemaViolation = "schema_violation"

const rootField = "(root)"

// Validator validates manifests against a compiled JSON Schema.
// It is safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the given JSON Schema document.
func New(schema map[string]any) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile component schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate returns one error diagnostic per schema violation. The returned
// error is only set when the manifest could not be checked at all.
func (v *Validator) Validate(doc map[string]any) (diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return diags, fmt.Errorf("failed to validate manifest: %w", err)
	}

	for _, desc := range result.Errors() {
		diags.AddError(CodeSchemaViolation, desc.Description(), "", fieldPath(desc.Field()))
	}

	return diags, nil
}

// fieldPath converts "streams.0.retriever" into "/streams/0/retriever".
func fieldPath(field string) string {
	if field == "" || field == rootField {
		return "/"
	}

	return "/" + strings.ReplaceAll(field, ".", "/")
}
