package manifest

// Top-level keys recognized on a manifest root.
const (
	KeyVersion     = "version"
	KeyType        = "type"
	KeyCheck       = "check"
	KeyDefinitions = "definitions"
	KeyStreams     = "streams"
	KeySchemas     = "schemas"
	KeySpec        = "spec"
	KeyMetadata    = "metadata"
)

// Keys with special meaning anywhere in the tree.
const (
	KeyRef        = "$ref"
	KeyParameters = "$parameters"
	KeyLinked     = "linked"
	KeyName       = "name"

	KeySchemaLoader      = "schema_loader"
	KeySchema            = "schema"
	KeyAppliedMigrations = "applied_migrations"
)

// DefaultVersion is assumed when a manifest does not declare a version.
const DefaultVersion = "0.0.0"

// TypeDeclarativeSource is the root component type.
const TypeDeclarativeSource = "DeclarativeSource"
