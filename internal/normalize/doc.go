// Package normalize deduplicates a resolved manifest into shared linked
// definitions and lifts inline stream schemas into the top-level schema
// registry.
//
// Which component fields may be linked is read from a component schema:
// a property carrying "linkable: true" under definitions.<Type>.properties
// is eligible. For every (type, field) pair the strictly most frequent value
// seen at least twice is hoisted to definitions.linked.<Type>.<field> and its
// occurrences are rewritten as references. Ties are left alone.
//
// Normalization is best-effort per component type and idempotent: running it
// on its own output changes nothing.
package normalize
