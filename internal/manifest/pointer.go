package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PointerPrefix starts every in-document reference.
const PointerPrefix = "#/"

// Pointer addresses a node inside a manifest, e.g. "#/definitions/linked/HttpRequester/url_base".
type Pointer struct {
	Segments []string
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// IsPointer reports whether s looks like an in-document reference.
func IsPointer(s string) bool {
	return strings.HasPrefix(s, PointerPrefix)
}

// ParsePointer parses a "#/a/b/0" reference string into a Pointer.
func ParsePointer(ref string) (Pointer, error) {
	if ref == "" {
		return Pointer{}, errors.New("empty reference")
	}

	if !IsPointer(ref) {
		return Pointer{}, fmt.Errorf("invalid reference %q: must start with %q", ref, PointerPrefix)
	}

	body := strings.TrimPrefix(ref, PointerPrefix)
	if body == "" {
		return Pointer{}, fmt.Errorf("invalid reference %q: no path", ref)
	}

	parts := strings.Split(body, "/")
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			return Pointer{}, fmt.Errorf("invalid reference %q: empty segment", ref)
		}

		segments = append(segments, pointerUnescaper.Replace(part))
	}

	return Pointer{Segments: segments}, nil
}

// NewPointer builds a Pointer from raw (unescaped) segments.
func NewPointer(segments ...string) Pointer {
	return Pointer{Segments: append([]string(nil), segments...)}
}

// Child returns a new pointer with the segment appended.
func (p Pointer) Child(segment string) Pointer {
	segments := make([]string, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)

	return Pointer{Segments: append(segments, segment)}
}

// String renders the pointer in "#/a/b" form.
func (p Pointer) String() string {
	escaped := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		escaped[i] = pointerEscaper.Replace(s)
	}

	return PointerPrefix + strings.Join(escaped, "/")
}

// Location renders the pointer as a slash path for messages, "/" for the root.
func (p Pointer) Location() string {
	if len(p.Segments) == 0 {
		return "/"
	}

	return "/" + strings.Join(p.Segments, "/")
}

// HasPrefix reports whether p starts with all segments of prefix.
func (p Pointer) HasPrefix(prefix Pointer) bool {
	if len(prefix.Segments) > len(p.Segments) {
		return false
	}

	for i, s := range prefix.Segments {
		if p.Segments[i] != s {
			return false
		}
	}

	return true
}

// Lookup follows the pointer from root. Mapping segments are keys, sequence
// segments are zero-based indices.
func Lookup(root any, p Pointer) (any, bool) {
	current := root

	for _, seg := range p.Segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}

			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}

			current = node[idx]
		default:
			return nil, false
		}
	}

	return current, true
}
