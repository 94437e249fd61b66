// Package manifest provides the in-memory document model for declarative
// connector manifests and the helpers every pipeline stage builds on.
//
// A manifest is held as plain JSON-compatible values: map[string]any,
// []any and scalars. Nothing in this package retains a document after a
// call returns.
//
// # Key capabilities
//
//   - Parse YAML or JSON documents into a map[string]any tree
//   - Marshal a tree back to YAML or JSON
//   - Parse and follow "#/a/b/0" style pointers
//   - Deep-copy subtrees so every embedding is independent
//   - Fingerprint subtrees for structural-equality grouping
//   - Read the declared manifest version and compare versions numerically
//   - Visit every component (a mapping with a string "type") deterministically
//
// # Document Overview
//
//	version: 6.47.1
//	type: DeclarativeSource
//	check: {type: CheckStream, stream_names: [A]}
//	definitions:
//	  requester: {type: HttpRequester, url: "https://example.com/v1/"}
//	streams:
//	  - $ref: "#/definitions/streams/A"
//	schemas:
//	  A: {type: object}
//	metadata:
//	  applied_migrations: []
package manifest
