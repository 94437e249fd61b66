// Package main is the entry point for the manifest-pipeline CLI.
//
// manifest-pipeline reads a declarative connector manifest and runs it
// through reference resolution, normalization, migration and validation:
//   - resolve expands $ref pointers and propagates $parameters
//   - normalize deduplicates linkable values into definitions.linked
//   - migrate upgrades the manifest to the latest registered version
//   - process runs every enabled stage
package main

import (
	"os"

	"manifest-pipeline/cmd/manifest-pipeline/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
