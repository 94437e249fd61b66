package migrate

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"manifest-pipeline/internal/manifest"
)

// TimestampLayout formats Record.MigratedAt, e.g. 2025-04-01T00:00:00+00:00.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Record is one entry of metadata.applied_migrations.
type Record struct {
	FromVersion string `json:"from_version" yaml:"from_version"`
	ToVersion   string `json:"to_version"   yaml:"to_version"`
	Migration   string `json:"migration"    yaml:"migration"`
	MigratedAt  string `json:"migrated_at"  yaml:"migrated_at"`
}

func (r Record) toMap() map[string]any {
	return map[string]any{
		"from_version": r.FromVersion,
		"to_version":   r.ToVersion,
		"migration":    r.Migration,
		"migrated_at":  r.MigratedAt,
	}
}

// Handler applies registered migrations to manifests. It keeps no
// per-manifest state and is safe for concurrent use.
type Handler struct {
	registry *Registry
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the time source used for migrated_at.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler over the given registry.
func NewHandler(registry *Registry, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		now:      time.Now,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Apply returns a migrated copy of doc and the records appended to its
// metadata.applied_migrations during this run. On error doc is unchanged and
// the returned error is a *MigrationApplyError.
func (h *Handler) Apply(doc map[string]any) (map[string]any, []Record, error) {
	declared := manifest.Version(doc)

	declaredVersion, err := manifest.ParseVersion(declared)
	if err != nil {
		return nil, nil, &MigrationApplyError{Err: err}
	}

	work := manifest.DeepCopy(doc)
	migratedAt := h.now().UTC().Truncate(time.Second).Format(TimestampLayout)

	var records []Record

	for _, entry := range h.registry.entries {
		name := entry.Migration.Name()

		if !entry.Version.GreaterThan(declaredVersion) {
			h.logger.Debug("migration not needed",
				zap.String("migration", name),
				zap.String("manifest_version", declared),
				zap.String("migration_version", entry.Version.Original()),
			)

			continue
		}

		migrated, err := h.run(entry.Migration, work)
		if err != nil {
			return nil, nil, err
		}

		if migrated == 0 {
			continue
		}

		records = append(records, Record{
			FromVersion: declared,
			ToVersion:   entry.Version.Original(),
			Migration:   name,
			MigratedAt:  migratedAt,
		})
		work[manifest.KeyVersion] = entry.Version.Original()

		h.logger.Info("migration applied",
			zap.String("migration", name),
			zap.Int("components", migrated),
			zap.String("to_version", entry.Version.Original()),
		)
	}

	if len(records) == 0 {
		return work, nil, nil
	}

	if err := appendRecords(work, records); err != nil {
		return nil, nil, &MigrationApplyError{Err: err}
	}

	return work, records, nil
}

// run applies one migration to every component of work and returns how many
// components it changed.
func (h *Handler) run(m Migration, work map[string]any) (int, error) {
	var migrated int

	err := manifest.WalkComponents(work, func(path manifest.Pointer, component map[string]any) error {
		if !m.ShouldMigrate(component) {
			return nil
		}

		if err := m.Migrate(component, work); err != nil {
			return &MigrationApplyError{Migration: m.Name(), Path: path.Location(), Err: err}
		}

		if !m.Validate(component) {
			return &MigrationApplyError{Migration: m.Name(), Path: path.Location(), Err: ErrValidationFailed}
		}

		migrated++

		return nil
	})

	return migrated, err
}

func appendRecords(doc map[string]any, records []Record) error {
	var metadata map[string]any

	switch m := doc[manifest.KeyMetadata].(type) {
	case nil:
		metadata = make(map[string]any)
		doc[manifest.KeyMetadata] = metadata
	case map[string]any:
		metadata = m
	default:
		return fmt.Errorf("%s must be a mapping, got %T", manifest.KeyMetadata, m)
	}

	var applied []any

	switch a := metadata[manifest.KeyAppliedMigrations].(type) {
	case nil:
	case []any:
		applied = a
	default:
		return fmt.Errorf("%s.%s must be a list, got %T", manifest.KeyMetadata, manifest.KeyAppliedMigrations, a)
	}

	for _, r := range records {
		applied = append(applied, r.toMap())
	}

	metadata[manifest.KeyAppliedMigrations] = applied

	return nil
}
