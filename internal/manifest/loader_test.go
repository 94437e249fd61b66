package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	yaml := `
version: 6.47.1
type: DeclarativeSource
definitions:
  requester:
    type: HttpRequester
    url_base: "https://example.com/v1/"
streams:
  - $ref: "#/definitions/streams/A"
schemas:
  A:
    type: object
    additionalProperties: true
`

	doc, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "6.47.1", doc[KeyVersion])
	assert.Equal(t, TypeDeclarativeSource, doc[KeyType])

	requester, ok := Lookup(doc, NewPointer("definitions", "requester"))
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"type":     "HttpRequester",
		"url_base": "https://example.com/v1/",
	}, requester)

	streams, ok := doc[KeyStreams].([]any)
	require.True(t, ok)
	require.Len(t, streams, 1)
	assert.Equal(t, map[string]any{"$ref": "#/definitions/streams/A"}, streams[0])

	additional, ok := Lookup(doc, NewPointer("schemas", "A", "additionalProperties"))
	require.True(t, ok)
	assert.Equal(t, true, additional)
}

func TestParseJSON(t *testing.T) {
	doc, err := Parse([]byte(`{"version": "0.0.0", "streams": [{"name": "A", "count": 3}]}`))
	require.NoError(t, err)

	name, ok := Lookup(doc, NewPointer("streams", "0", "name"))
	require.True(t, ok)
	assert.Equal(t, "A", name)

	count, ok := Lookup(doc, NewPointer("streams", "0", "count"))
	require.True(t, ok)
	assert.Equal(t, 3, count)
}

func TestParseNonStringKeys(t *testing.T) {
	doc, err := Parse([]byte("codes:\n  200: ok\n  404: missing\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"200": "ok", "404": "missing"}, doc["codes"])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "sequence root", data: "- a\n- b\n"},
		{name: "scalar root", data: "just a string"},
		{name: "malformed", data: "a: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := map[string]any{
		"version": "6.47.1",
		"metadata": map[string]any{
			"applied_migrations": []any{
				map[string]any{
					"from_version": "0.0.0",
					"to_version":   "6.47.1",
					"migration":    "HttpRequesterUrlBaseToUrl",
					"migrated_at":  "2025-04-01T00:00:00+00:00",
				},
			},
		},
	}

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(doc, format)
			require.NoError(t, err)

			parsed, err := Parse(data)
			require.NoError(t, err)
			assert.Equal(t, doc, parsed)
		})
	}
}

func TestWriteAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	doc := map[string]any{"type": TypeDeclarativeSource, "streams": []any{}}

	require.NoError(t, WriteFile(doc, path, FormatFromPath(path)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type": "DeclarativeSource"`)

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatYAML},
		{in: "yaml", want: FormatYAML},
		{in: "YML", want: FormatYAML},
		{in: "json", want: FormatJSON},
		{in: "toml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}

		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, FormatJSON, FormatFromPath("a/b/manifest.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("manifest.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("manifest"))
}
