package normalize

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"manifest-pipeline/internal/diagnostic"
	"manifest-pipeline/internal/manifest"
)

// Result is the outcome of one normalization run.
type Result struct {
	Manifest    map[string]any
	Diagnostics diagnostic.Diagnostics
	// References counts occurrences rewritten into linked references.
	References int
	// ExtractedSchemas counts inline stream schemas moved to the schemas registry.
	ExtractedSchemas int
}

// Normalizer deduplicates resolved manifests. It holds only the linkable
// field table and is safe for concurrent use.
type Normalizer struct {
	linkable    map[string][]string
	schemaDiags diagnostic.Diagnostics
	logger      *zap.Logger
}

// New creates a Normalizer for the given component schema. Problems in the
// schema are not fatal; they are reported with every Result.
func New(componentSchema map[string]any, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	linkable, diags := LinkableFields(componentSchema)

	return &Normalizer{
		linkable:    linkable,
		schemaDiags: diags,
		logger:      logger,
	}
}

// Normalize returns a normalized copy of a resolved manifest.
func (n *Normalizer) Normalize(doc map[string]any) (*Result, error) {
	if doc == nil {
		return nil, errors.New("manifest is nil")
	}

	work := manifest.DeepCopy(doc)
	res := &Result{}
	res.Diagnostics.Merge(n.schemaDiags)

	if err := n.extractSchemas(work, res); err != nil {
		return nil, err
	}

	_, hadDefinitions := work[manifest.KeyDefinitions]

	linked, err := pruneDefinitions(work)
	if err != nil {
		return nil, err
	}

	n.deduplicate(work, linked, res)

	if len(linked) == 0 {
		if hadDefinitions {
			work[manifest.KeyDefinitions] = map[string]any{}
		} else {
			delete(work, manifest.KeyDefinitions)
		}
	}

	res.Manifest = work

	n.logger.Debug("manifest normalized",
		zap.Int("references", res.References),
		zap.Int("extracted_schemas", res.ExtractedSchemas),
		zap.Int("warnings", len(res.Diagnostics.Warnings)),
	)

	return res, nil
}

// extractSchemas moves inline streams[*].schema_loader.schema objects to
// schemas.<stream name> and leaves a reference in their place.
func (n *Normalizer) extractSchemas(doc map[string]any, res *Result) error {
	streams, ok := doc[manifest.KeyStreams].([]any)
	if !ok {
		return nil
	}

	var schemas map[string]any

	switch s := doc[manifest.KeySchemas].(type) {
	case nil:
		schemas = make(map[string]any)
	case map[string]any:
		schemas = s
	default:
		return fmt.Errorf("%s must be a mapping, got %T", manifest.KeySchemas, s)
	}

	for i, item := range streams {
		at := manifest.NewPointer(manifest.KeyStreams, strconv.Itoa(i))

		stream, ok := item.(map[string]any)
		if !ok {
			continue
		}

		loader, ok := stream[manifest.KeySchemaLoader].(map[string]any)
		if !ok {
			continue
		}

		schema, ok := loader[manifest.KeySchema].(map[string]any)
		if !ok {
			continue
		}

		if _, isRef := manifest.AsReference(schema); isRef {
			continue
		}

		name, ok := stream[manifest.KeyName].(string)
		if !ok || name == "" {
			res.Diagnostics.AddInfo(CodeSchemaSkipped, "stream has no name; inline schema kept",
				manifest.ComponentType(stream), at.Location())

			continue
		}

		existing, found := schemas[name]

		switch {
		case !found:
			schemas[name] = schema
		case !manifest.Equal(existing, schema):
			res.Diagnostics.AddWarning(CodeSchemaConflict,
				fmt.Sprintf("inline schema differs from %s.%s; kept inline", manifest.KeySchemas, name),
				manifest.ComponentType(stream), at.Location())

			continue
		}

		loader[manifest.KeySchema] = manifest.NewReference(manifest.NewPointer(manifest.KeySchemas, name))
		res.ExtractedSchemas++
	}

	if len(schemas) > 0 {
		doc[manifest.KeySchemas] = schemas
	}

	return nil
}

// pruneDefinitions drops every definition except the linked section, which
// is returned (created when absent). Resolved manifests no longer reference
// anything else under definitions.
func pruneDefinitions(doc map[string]any) (map[string]any, error) {
	var defs map[string]any

	switch d := doc[manifest.KeyDefinitions].(type) {
	case nil:
		defs = make(map[string]any)
	case map[string]any:
		defs = d
	default:
		return nil, fmt.Errorf("%s must be a mapping, got %T", manifest.KeyDefinitions, d)
	}

	var linked map[string]any

	switch l := defs[manifest.KeyLinked].(type) {
	case nil:
		linked = make(map[string]any)
	case map[string]any:
		linked = l
	default:
		return nil, fmt.Errorf("%s.%s must be a mapping, got %T", manifest.KeyDefinitions, manifest.KeyLinked, l)
	}

	for key := range defs {
		delete(defs, key)
	}

	defs[manifest.KeyLinked] = linked
	doc[manifest.KeyDefinitions] = defs

	return linked, nil
}
