package migrate

import (
	"errors"
	"fmt"

	"manifest-pipeline/internal/manifest"
)

// Migration rewrites one deprecated component shape. Implementations must be
// idempotent: once a component has been migrated ShouldMigrate reports false.
type Migration interface {
	// Name is recorded in metadata.applied_migrations.
	Name() string
	// ShouldMigrate reports whether component has the deprecated shape.
	ShouldMigrate(component map[string]any) bool
	// Migrate rewrites component in place. root is the whole working
	// manifest and is only read, to follow references.
	Migrate(component, root map[string]any) error
	// Validate reports whether component now has the expected shape.
	Validate(component map[string]any) bool
}

// maxDerefDepth bounds chains of references followed by deref.
const maxDerefDepth = 16

// deref follows v while it is a {"$ref": "#/..."} mapping into root. Values
// that are not references are returned unchanged.
func deref(root map[string]any, v any) (any, error) {
	for range maxDerefDepth {
		ref, ok := manifest.AsReference(v)
		if !ok {
			return v, nil
		}

		p, err := manifest.ParsePointer(ref)
		if err != nil {
			return nil, err
		}

		target, found := manifest.Lookup(root, p)
		if !found {
			return nil, fmt.Errorf("reference %q not found", ref)
		}

		v = target
	}

	return nil, errors.New("reference chain too deep")
}

// isType reports whether component declares the given type.
func isType(component map[string]any, componentType string) bool {
	return manifest.ComponentType(component) == componentType
}

func has(component map[string]any, key string) bool {
	_, ok := component[key]
	return ok
}
