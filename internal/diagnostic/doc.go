// Package diagnostic provides structured errors, warnings and notes collected
// while a manifest moves through the pipeline.
//
// Diagnostics are soft: a stage that records a warning still produces its
// output. Hard failures are returned as Go errors instead.
//
// Key capabilities:
//   - Skipped normalization of component types with a malformed schema
//   - Inline schemas that conflict with an existing named schema
//   - Schema violations reported by the validator
package diagnostic
