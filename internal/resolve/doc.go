// Package resolve expands in-document references and propagates
// $parameters through a manifest.
//
// Preprocess runs two steps over a private copy of the input:
//
//  1. Every {"$ref": "#/..."} mapping (and every bare "#/..." string) is
//     replaced with a fresh copy of its resolved target. Keys declared next
//     to $ref are merged over the target and win.
//  2. Starting at the root, each component receives its parent's merged
//     $parameters overridden by its own, and parameters fill any field the
//     component leaves unset.
//
// Untyped mappings at well-known positions (for example the requester of a
// SimpleRetriever) are given their default component type before parameters
// are applied. JSON-schema objects never receive parameters.
package resolve
