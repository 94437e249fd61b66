package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/normalize"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()

	schema, err := normalize.DefaultComponentSchema()
	require.NoError(t, err)

	v, err := New(schema)
	require.NoError(t, err)

	return v
}

func TestValidateAcceptsProcessedManifest(t *testing.T) {
	doc, err := manifest.Parse([]byte(`
version: 6.47.1
type: DeclarativeSource
check: {type: CheckStream, stream_names: [users]}
definitions:
  linked:
    HttpRequester:
      url_base: https://example.com/
streams:
  - type: DeclarativeStream
    name: users
    retriever:
      type: SimpleRetriever
      requester:
        type: HttpRequester
        url: {$ref: "#/definitions/linked/HttpRequester/url_base"}
        http_method: POST
        request_body:
          type: RequestBodyJsonObject
          value: {a: 1}
      record_selector:
        type: RecordSelector
        extractor: {type: DpathExtractor, field_path: [data]}
    schema_loader:
      type: InlineSchemaLoader
      schema: {$ref: "#/schemas/users"}
schemas:
  users: {type: object}
`))
	require.NoError(t, err)

	diags, err := newTestValidator(t).Validate(doc)
	require.NoError(t, err)
	assert.True(t, diags.IsValid(), diags.Error())
}

func TestValidateAcceptsGraphQLBodies(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "string kept as written", value: `'{"query": "{ pokemon { name } }"}'`},
		{name: "object", value: `{query: "{ pokemon { name } }"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := manifest.Parse([]byte(`
type: DeclarativeSource
streams:
  - type: DeclarativeStream
    retriever:
      type: SimpleRetriever
      requester:
        type: HttpRequester
        request_body:
          type: RequestBodyGraphQL
          value: ` + tt.value + `
`))
			require.NoError(t, err)

			diags, err := newTestValidator(t).Validate(doc)
			require.NoError(t, err)
			assert.True(t, diags.IsValid(), diags.Error())
		})
	}
}

func TestValidateReportsViolations(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantPath string
	}{
		{
			name:     "missing streams",
			yaml:     "type: DeclarativeSource\n",
			wantPath: "/",
		},
		{
			name:     "wrong root type",
			yaml:     "type: Other\nstreams: []\n",
			wantPath: "/type",
		},
		{
			name: "bad request body",
			yaml: `
type: DeclarativeSource
streams:
  - type: DeclarativeStream
    retriever:
      type: SimpleRetriever
      requester:
        type: HttpRequester
        request_body: {type: RequestBodyPlainText, value: {not: text}}
`,
			wantPath: "/streams/0/retriever/requester/request_body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := manifest.Parse([]byte(tt.yaml))
			require.NoError(t, err)

			diags, err := newTestValidator(t).Validate(doc)
			require.NoError(t, err)
			require.True(t, diags.HasErrors())

			var paths []string
			for _, d := range diags.Errors {
				assert.Equal(t, CodeSchemaViolation, d.Code)
				paths = append(paths, d.Path)
			}

			assert.Contains(t, paths, tt.wantPath)
		})
	}
}

func TestNewRejectsInvalidSchema(t *testing.T) {
	_, err := New(map[string]any{"type": 42})
	assert.Error(t, err)
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "/", fieldPath("(root)"))
	assert.Equal(t, "/streams/0/name", fieldPath("streams.0.name"))
}
