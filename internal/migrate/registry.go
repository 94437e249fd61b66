package migrate

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/match"
)

//go:embed registry.yaml
var registryData []byte

// registryFile is the on-disk shape of registry.yaml.
type registryFile struct {
	Versions []registryVersion `yaml:"manifest_migrations"`
}

type registryVersion struct {
	Version    string          `yaml:"version"`
	Migrations []registryEntry `yaml:"migrations"`
}

type registryEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Entry is one registered migration and the version it migrates to.
type Entry struct {
	Version     *semver.Version
	Migration   Migration
	Description string
}

// Registry is the ordered, read-only list of known migrations.
type Registry struct {
	entries []Entry
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return ParseRegistry(registryData)
})

// DefaultRegistry returns the built-in registry. It is built once and shared.
func DefaultRegistry() (*Registry, error) {
	return defaultRegistry()
}

// ParseRegistry builds a registry from registry.yaml content. Entries are
// ordered by ascending version and keep declaration order within a version.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse migration registry: %w", err)
	}

	var entries []Entry

	seen := make(map[string]bool)

	for _, group := range file.Versions {
		v, err := manifest.ParseVersion(group.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid migration registry: %w", err)
		}

		for _, e := range group.Migrations {
			if e.Name == "" {
				return nil, fmt.Errorf("invalid migration registry: unnamed migration for version %s", group.Version)
			}

			if seen[e.Name] {
				return nil, fmt.Errorf("invalid migration registry: migration %s registered twice", e.Name)
			}

			seen[e.Name] = true

			build, ok := constructors[e.Name]
			if !ok {
				if hint, found := match.Suggest(e.Name, KnownMigrations()); found {
					return nil, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownMigration, e.Name, hint)
				}

				return nil, fmt.Errorf("%w: %s", ErrUnknownMigration, e.Name)
			}

			entries = append(entries, Entry{
				Version:     v,
				Migration:   build(),
				Description: e.Description,
			})
		}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Version.Compare(b.Version)
	})

	return &Registry{entries: entries}, nil
}

// NewRegistry builds a registry from explicit entries, ordered the same way
// ParseRegistry orders them.
func NewRegistry(entries ...Entry) (*Registry, error) {
	for _, e := range entries {
		if e.Version == nil || e.Migration == nil {
			return nil, errors.New("registry entry needs a version and a migration")
		}
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return a.Version.Compare(b.Version)
	})

	return &Registry{entries: sorted}, nil
}

// Entries returns the registered migrations in application order.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Len returns the number of registered migrations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Latest returns the highest target version, or nil for an empty registry.
func (r *Registry) Latest() *semver.Version {
	if len(r.entries) == 0 {
		return nil
	}

	return r.entries[len(r.entries)-1].Version
}
