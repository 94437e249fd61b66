// Package config loads manifest-pipeline settings from defaults, an optional
// YAML file, MANIFEST_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/migrate"
	"manifest-pipeline/internal/pipeline"
	"manifest-pipeline/internal/resolve"
)

// EnvPrefix is the prefix of environment variables read by Load, e.g.
// MANIFEST_STAGES_VALIDATE=true.
const EnvPrefix = "MANIFEST"

// Keys understood by Load. Command-line flags are bound to these.
const (
	KeyNormalize           = "stages.normalize"
	KeyMigrate             = "stages.migrate"
	KeyValidate            = "stages.validate"
	KeyPropagateParameters = "resolve.propagate_parameters"
	KeyInferDefaultTypes   = "resolve.infer_default_types"
	KeyLogLevel            = "log.level"
	KeyLogDevelopment      = "log.development"
	KeyFormat              = "output.format"
	KeyMetricsTextfile     = "metrics.textfile"
	KeyComponentSchema     = "component_schema"
	KeyRegistry            = "registry"
)

// Config is the full application configuration.
type Config struct {
	Stages  StagesConfig  `mapstructure:"stages"`
	Resolve ResolveConfig `mapstructure:"resolve"`
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	// ComponentSchema is an optional path to a component schema replacing
	// the embedded one.
	ComponentSchema string `mapstructure:"component_schema"`
	// Registry is an optional path to a migration registry file replacing
	// the embedded one.
	Registry string `mapstructure:"registry"`
}

// StagesConfig toggles the optional pipeline stages.
type StagesConfig struct {
	Normalize bool `mapstructure:"normalize"`
	Migrate   bool `mapstructure:"migrate"`
	Validate  bool `mapstructure:"validate"`
}

// ResolveConfig controls reference resolution.
type ResolveConfig struct {
	PropagateParameters bool `mapstructure:"propagate_parameters"`
	InferDefaultTypes   bool `mapstructure:"infer_default_types"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// OutputConfig controls how results are written. An empty format keeps the
// format of the input file.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// MetricsConfig controls metric export. When Textfile is set, the metrics of
// a run are written there in the Prometheus text format.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	defaults := pipeline.DefaultConfig()

	v.SetDefault(KeyNormalize, defaults.Normalize)
	v.SetDefault(KeyMigrate, defaults.Migrate)
	v.SetDefault(KeyValidate, defaults.Validate)
	v.SetDefault(KeyPropagateParameters, defaults.Resolve.PropagateParameters)
	v.SetDefault(KeyInferDefaultTypes, defaults.Resolve.InferDefaultTypes)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyFormat, "")
	v.SetDefault(KeyMetricsTextfile, "")
	v.SetDefault(KeyComponentSchema, "")
	v.SetDefault(KeyRegistry, "")
}

// Load reads the configuration into a Config. path may be empty, in which
// case only defaults, environment and flags bound on v are used.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if c.Output.Format != "" {
		if _, err := manifest.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("output.format: %w", err)
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Pipeline returns the stage selection for pipeline.New.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Normalize: c.Stages.Normalize,
		Migrate:   c.Stages.Migrate,
		Validate:  c.Stages.Validate,
		Resolve: resolve.Config{
			PropagateParameters: c.Resolve.PropagateParameters,
			InferDefaultTypes:   c.Resolve.InferDefaultTypes,
		},
	}
}

// Options returns the pipeline options for the configured schema and
// registry overrides.
func (c *Config) Options() ([]pipeline.Option, error) {
	var opts []pipeline.Option

	if c.ComponentSchema != "" {
		schema, err := manifest.LoadFile(c.ComponentSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to load component schema: %w", err)
		}

		opts = append(opts, pipeline.WithComponentSchema(schema))
	}

	if c.Registry != "" {
		data, err := os.ReadFile(c.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration registry: %w", err)
		}

		registry, err := migrate.ParseRegistry(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse migration registry: %w", err)
		}

		opts = append(opts, pipeline.WithRegistry(registry))
	}

	return opts, nil
}
