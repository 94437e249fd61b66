package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"manifest-pipeline/internal/manifest"
)

func parse(t *testing.T, yaml string) map[string]any {
	t.Helper()

	doc, err := manifest.Parse([]byte(yaml))
	require.NoError(t, err)

	return doc
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	return NewResolver(DefaultConfig(), zaptest.NewLogger(t))
}

func TestPreprocessExpandsReferences(t *testing.T) {
	doc := parse(t, `
definitions:
  requester:
    type: HttpRequester
    url_base: https://example.com/v1/
    http_method: GET
  retriever:
    requester:
      $ref: "#/definitions/requester"
      http_method: POST
streams:
  - $ref: "#/definitions/retriever"
    extra: true
`)

	resolved, err := newTestResolver(t).Preprocess(doc)
	require.NoError(t, err)

	want := map[string]any{
		"requester": map[string]any{
			"type":        "HttpRequester",
			"url_base":    "https://example.com/v1/",
			"http_method": "POST",
		},
		"extra": true,
	}

	streams := resolved["streams"].([]any)
	require.Len(t, streams, 1)
	assert.Equal(t, want, streams[0])

	// Sibling keys win only where they are declared.
	requester, ok := manifest.Lookup(resolved, manifest.NewPointer("definitions", "requester", "http_method"))
	require.True(t, ok)
	assert.Equal(t, "GET", requester)
}

func TestPreprocessNonMappingTarget(t *testing.T) {
	doc := parse(t, `
definitions:
  url: https://example.com
  fields: [id, name]
requester:
  url_base:
    $ref: "#/definitions/url"
    ignored: sibling
  fields:
    $ref: "#/definitions/fields"
  bare: "#/definitions/url"
`)

	resolved, err := newTestResolver(t).Preprocess(doc)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"url_base": "https://example.com",
		"fields":   []any{"id", "name"},
		"bare":     "https://example.com",
	}, resolved["requester"])
}

func TestPreprocessCopiesAreIndependent(t *testing.T) {
	doc := parse(t, `
definitions:
  shared:
    headers:
      accept: application/json
a:
  $ref: "#/definitions/shared"
b:
  $ref: "#/definitions/shared"
`)
	original := manifest.DeepCopy(doc)

	resolved, err := newTestResolver(t).Preprocess(doc)
	require.NoError(t, err)

	resolved["a"].(map[string]any)["headers"].(map[string]any)["accept"] = "text/plain"

	assert.Equal(t, "application/json", resolved["b"].(map[string]any)["headers"].(map[string]any)["accept"])
	assert.Equal(t, "application/json", resolved["definitions"].(map[string]any)["shared"].(map[string]any)["headers"].(map[string]any)["accept"])
	assert.Equal(t, original, doc, "input must not be mutated")
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantRef string
		wantErr error
	}{
		{
			name:    "missing target",
			yaml:    "stream:\n  $ref: \"#/definitions/missing\"\n",
			wantRef: "#/definitions/missing",
			wantErr: ErrTargetNotFound,
		},
		{
			name:    "missing index",
			yaml:    "streams: [a]\nstream:\n  $ref: \"#/streams/3\"\n",
			wantRef: "#/streams/3",
			wantErr: ErrTargetNotFound,
		},
		{
			name:    "non string ref",
			yaml:    "stream:\n  $ref: 42\n",
			wantRef: "42",
			wantErr: ErrRefNotString,
		},
		{
			name:    "malformed pointer",
			yaml:    "stream:\n  $ref: \"definitions/requester\"\n",
			wantRef: "definitions/requester",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(t).Preprocess(parse(t, tt.yaml))
			require.Error(t, err)

			var refErr *ReferenceResolutionError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tt.wantRef, refErr.Ref)
			assert.Equal(t, "/stream", refErr.At)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPreprocessCycles(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantChain []string
	}{
		{
			name: "mutual",
			yaml: `
definitions:
  a: {$ref: "#/definitions/b"}
  b: {$ref: "#/definitions/a"}
`,
			wantChain: []string{"#/definitions/b", "#/definitions/a", "#/definitions/b"},
		},
		{
			name: "self",
			yaml: `
definitions:
  a: {$ref: "#/definitions/a"}
`,
			wantChain: []string{"#/definitions/a", "#/definitions/a"},
		},
		{
			name: "ancestor",
			yaml: `
definitions:
  node:
    child:
      $ref: "#/definitions/node"
`,
			wantChain: []string{"#/definitions/node", "#/definitions/node"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(t).Preprocess(parse(t, tt.yaml))
			require.Error(t, err)

			var cycleErr *CyclicReferenceError
			require.True(t, errors.As(err, &cycleErr), "expected CyclicReferenceError, got %v", err)
			assert.Equal(t, tt.wantChain, cycleErr.Chain)
		})
	}
}

func TestPreprocessRepeatedReferenceIsNotACycle(t *testing.T) {
	doc := parse(t, `
definitions:
  auth: {type: ApiKeyAuthenticator, api_token: "{{ config['key'] }}"}
  requester:
    type: HttpRequester
    authenticator: {$ref: "#/definitions/auth"}
    fallback: {$ref: "#/definitions/auth"}
`)

	resolved, err := newTestResolver(t).Preprocess(doc)
	require.NoError(t, err)

	requester := resolved["definitions"].(map[string]any)["requester"].(map[string]any)
	assert.Equal(t, requester["authenticator"], requester["fallback"])
}

func TestPreprocessSuggestsClosestPointer(t *testing.T) {
	tests := []struct {
		name           string
		yaml           string
		wantSuggestion string
	}{
		{
			name:           "misspelled key",
			yaml:           "definitions:\n  requester: {type: HttpRequester}\nstream:\n  $ref: \"#/definitions/requestr\"\n",
			wantSuggestion: "#/definitions/requester",
		},
		{
			name:           "misspelled parent",
			yaml:           "definitions:\n  requester: {type: HttpRequester}\nstream:\n  $ref: \"#/definition/requester\"\n",
			wantSuggestion: "#/definitions/requester",
		},
		{
			name: "nothing close",
			yaml: "definitions:\n  requester: {type: HttpRequester}\nstream:\n  $ref: \"#/definitions/authenticator\"\n",
		},
		{
			name: "list index",
			yaml: "streams: [a]\nstream:\n  $ref: \"#/streams/3\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := manifest.Parse([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = NewResolver(DefaultConfig(), zaptest.NewLogger(t)).Preprocess(doc)

			var refErr *ReferenceResolutionError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tt.wantSuggestion, refErr.Suggestion)

			if tt.wantSuggestion != "" {
				assert.Contains(t, refErr.Error(), "did you mean")
			}
		})
	}
}

