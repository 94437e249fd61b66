// Package validate checks a processed manifest against the declarative
// component JSON Schema and reports every violation as a diagnostic.
package validate
