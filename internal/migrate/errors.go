package migrate

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationFailed is wrapped when a migrated component does not pass
	// its migration's post-condition.
	ErrValidationFailed = errors.New("migrated component failed validation")
	// ErrUnknownMigration is returned when the registry names a migration
	// that has no implementation.
	ErrUnknownMigration = errors.New("unknown migration")
)

// MigrationApplyError reports a migration that could not be completed.
// The manifest passed to Apply is left unchanged.
type MigrationApplyError struct {
	// Migration is the name of the failing migration, empty when the
	// manifest could not be prepared at all.
	Migration string
	// Path is the location of the failing component, if any.
	Path string
	Err  error
}

func (e *MigrationApplyError) Error() string {
	switch {
	case e.Migration == "":
		return fmt.Sprintf("failed to apply migrations: %v", e.Err)
	case e.Path == "":
		return fmt.Sprintf("failed to apply migration %s: %v", e.Migration, e.Err)
	default:
		return fmt.Sprintf("failed to apply migration %s at %s: %v", e.Migration, e.Path, e.Err)
	}
}

func (e *MigrationApplyError) Unwrap() error {
	return e.Err
}
