// Package migrate rewrites deprecated manifest shapes into the current one.
//
// Migrations are declared in an embedded registry keyed by the manifest
// version that introduced the new shape. A Handler runs, in ascending version
// order, every migration whose target version is newer than the version the
// manifest declares. Each migration visits every component in the document,
// parents before children. When at least one component changed, the run is
// recorded under metadata.applied_migrations and the manifest version is
// advanced to the migration's target.
//
// Work happens on a private copy: a failing migration leaves the caller's
// manifest untouched and records nothing.
package migrate
