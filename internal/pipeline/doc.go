// Package pipeline chains the manifest stages into one call.
//
// A raw manifest flows through reference resolution, then optionally
// normalization, migration and schema validation:
//
//	raw -> resolve -> normalize -> migrate -> validate -> Result
//
// Each stage works on its own copy, so the caller's document is never
// changed. Soft problems are collected in Result.Diagnostics; hard failures
// are returned as the typed errors of the failing stage.
package pipeline
