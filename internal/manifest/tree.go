package manifest

import (
	"hash/fnv"
	"maps"
	"slices"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/mohae/deepcopy"
)

// fingerprintPrinter renders values deterministically: map keys sorted,
// no pointer addresses, no capacities.
var fingerprintPrinter = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	SpewKeys:                true,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// DeepCopy returns an independent copy of v.
func DeepCopy[T any](v T) T {
	c, _ := deepcopy.Copy(v).(T)
	return c
}

// Fingerprint returns a structural hash of v. Structurally equal values
// share a fingerprint regardless of map iteration order.
func Fingerprint(v any) string {
	h := fnv.New64a()
	fingerprintPrinter.Fprintf(h, "%#v", v)

	return strconv.FormatUint(h.Sum64(), 16)
}

// Equal reports whether two manifest values are structurally equal.
func Equal(a, b any) bool {
	return cmp.Equal(a, b)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// IsComponent reports whether m declares a component type.
func IsComponent(m map[string]any) bool {
	t, ok := m[KeyType].(string)
	return ok && t != ""
}

// ComponentType returns the "type" of m, or "" when m is not a component.
func ComponentType(m map[string]any) string {
	t, _ := m[KeyType].(string)
	return t
}

// AsReference returns the pointer string when v is a {"$ref": "..."} mapping.
func AsReference(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	ref, ok := m[KeyRef].(string)

	return ref, ok
}

// NewReference builds a {"$ref": "..."} mapping for the pointer.
func NewReference(p Pointer) map[string]any {
	return map[string]any{KeyRef: p.String()}
}

// Visitor is called for every component found by WalkComponents.
type Visitor func(path Pointer, component map[string]any) error

// WalkComponents visits every component under root depth-first, parents
// before children. Sequences are visited by index and mapping keys in sorted
// order so the visit order is stable across runs. The visitor may rewrite the
// component in place; its children are read after the visitor returns.
func WalkComponents(root any, fn Visitor) error {
	return walkComponents(root, Pointer{}, fn)
}

func walkComponents(node any, path Pointer, fn Visitor) error {
	switch n := node.(type) {
	case map[string]any:
		if IsComponent(n) {
			if err := fn(path, n); err != nil {
				return err
			}
		}

		for _, key := range SortedKeys(n) {
			if err := walkComponents(n[key], path.Child(key), fn); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range n {
			if err := walkComponents(item, path.Child(strconv.Itoa(i)), fn); err != nil {
				return err
			}
		}
	}

	return nil
}
