package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"manifest-pipeline/internal/diagnostic"
	"manifest-pipeline/internal/migrate"
	"manifest-pipeline/internal/normalize"
	"manifest-pipeline/internal/resolve"
	"manifest-pipeline/internal/validate"
)

// Config selects the stages run by Process.
type Config struct {
	// Normalize enables linked-definition deduplication and schema extraction.
	Normalize bool
	// Migrate enables version migrations.
	Migrate bool
	// Validate enables component schema validation of the final manifest.
	Validate bool
	// Resolve configures reference resolution, which always runs.
	Resolve resolve.Config
}

// DefaultConfig returns a configuration that resolves, normalizes and
// migrates without validating.
func DefaultConfig() Config {
	return Config{
		Normalize: true,
		Migrate:   true,
		Validate:  false,
		Resolve:   resolve.DefaultConfig(),
	}
}

// Result is the outcome of Process.
type Result struct {
	Manifest    map[string]any
	Applied     []migrate.Record
	Diagnostics diagnostic.Diagnostics
}

// Pipeline runs manifests through the configured stages.
type Pipeline struct {
	config     Config
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
	registry   *migrate.Registry
	schema     map[string]any
	resolver   *resolve.Resolver
	normalizer *normalize.Normalizer
	handler    *migrate.Handler
	validator  *validate.Validator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the collectors updated by each run.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithClock sets the time source used for migration records.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithRegistry replaces the embedded migration registry.
func WithRegistry(registry *migrate.Registry) Option {
	return func(p *Pipeline) {
		p.registry = registry
	}
}

// WithComponentSchema replaces the embedded component schema used by the
// normalizer and the validator.
func WithComponentSchema(schema map[string]any) Option {
	return func(p *Pipeline) {
		p.schema = schema
	}
}

// New builds a Pipeline. Defaults are loaded only for the stages that are
// enabled.
func New(config Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config: config,
		logger: zap.NewNop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	if p.metrics == nil {
		metrics, err := NewMetrics(nil)
		if err != nil {
			return nil, err
		}

		p.metrics = metrics
	}

	p.resolver = resolve.NewResolver(config.Resolve, p.logger.Named(StageResolve))

	if (config.Normalize || config.Validate) && p.schema == nil {
		schema, err := normalize.DefaultComponentSchema()
		if err != nil {
			return nil, fmt.Errorf("failed to load component schema: %w", err)
		}

		p.schema = schema
	}

	if config.Normalize {
		p.normalizer = normalize.New(p.schema, p.logger.Named(StageNormalize))
	}

	if config.Migrate {
		if p.registry == nil {
			registry, err := migrate.DefaultRegistry()
			if err != nil {
				return nil, fmt.Errorf("failed to load migration registry: %w", err)
			}

			p.registry = registry
		}

		p.handler = migrate.NewHandler(p.registry,
			migrate.WithClock(p.now),
			migrate.WithLogger(p.logger.Named(StageMigrate)),
		)
	}

	if config.Validate {
		validator, err := validate.New(p.schema)
		if err != nil {
			return nil, fmt.Errorf("failed to compile component schema: %w", err)
		}

		p.validator = validator
	}

	return p, nil
}

// Process runs every enabled stage over doc. doc is never modified.
func (p *Pipeline) Process(doc map[string]any) (*Result, error) {
	res := &Result{}

	current, err := p.Resolve(doc)
	if err != nil {
		return nil, err
	}

	if p.normalizer != nil {
		normalized, err := p.Normalize(current)
		if err != nil {
			return nil, err
		}

		current = normalized.Manifest
		res.Diagnostics.Merge(normalized.Diagnostics)
	}

	if p.handler != nil {
		migrated, records, err := p.Migrate(current)
		if err != nil {
			return nil, err
		}

		current = migrated
		res.Applied = records
	}

	if p.validator != nil {
		diags, err := p.Validate(current)
		if err != nil {
			return nil, err
		}

		res.Diagnostics.Merge(diags)
	}

	res.Manifest = current
	p.observeDiagnostics(res.Diagnostics)

	p.logger.Debug("manifest processed",
		zap.Int("applied", len(res.Applied)),
		zap.Int("errors", len(res.Diagnostics.Errors)),
		zap.Int("warnings", len(res.Diagnostics.Warnings)),
	)

	return res, nil
}

// Resolve expands references and propagates parameters.
func (p *Pipeline) Resolve(doc map[string]any) (map[string]any, error) {
	var out map[string]any

	err := p.stage(StageResolve, func() error {
		var err error
		out, err = p.resolver.Preprocess(doc)

		return err
	})

	return out, err
}

// Normalize deduplicates linkable values of an already resolved manifest.
func (p *Pipeline) Normalize(doc map[string]any) (*normalize.Result, error) {
	if p.normalizer == nil {
		return nil, fmt.Errorf("failed to normalize: %w", errStageDisabled(StageNormalize))
	}

	var out *normalize.Result

	err := p.stage(StageNormalize, func() error {
		var err error
		out, err = p.normalizer.Normalize(doc)

		return err
	})
	if err != nil {
		return nil, err
	}

	p.metrics.LinkedReferences.Add(float64(out.References))

	return out, nil
}

// Migrate applies every pending migration to doc.
func (p *Pipeline) Migrate(doc map[string]any) (map[string]any, []migrate.Record, error) {
	if p.handler == nil {
		return nil, nil, fmt.Errorf("failed to migrate: %w", errStageDisabled(StageMigrate))
	}

	var (
		out     map[string]any
		records []migrate.Record
	)

	err := p.stage(StageMigrate, func() error {
		var err error
		out, records, err = p.handler.Apply(doc)

		return err
	})
	if err != nil {
		return nil, nil, err
	}

	for _, r := range records {
		p.metrics.MigrationsApplied.WithLabelValues(r.Migration).Inc()
	}

	return out, records, nil
}

// Validate checks doc against the component schema.
func (p *Pipeline) Validate(doc map[string]any) (diagnostic.Diagnostics, error) {
	if p.validator == nil {
		return diagnostic.Diagnostics{}, fmt.Errorf("failed to validate: %w", errStageDisabled(StageValidate))
	}

	var out diagnostic.Diagnostics

	err := p.stage(StageValidate, func() error {
		var err error
		out, err = p.validator.Validate(doc)

		return err
	})

	return out, err
}

// Registry returns the migration registry, or nil when migration is disabled.
func (p *Pipeline) Registry() *migrate.Registry {
	return p.registry
}

func (p *Pipeline) stage(name string, fn func() error) error {
	timer := prometheus.NewTimer(p.metrics.StageDuration.WithLabelValues(name))
	err := fn()
	elapsed := timer.ObserveDuration()

	if err != nil {
		p.metrics.StageRuns.WithLabelValues(name, statusError).Inc()
		p.logger.Debug("stage failed", zap.String("stage", name), zap.Error(err))

		return err
	}

	p.metrics.StageRuns.WithLabelValues(name, statusSuccess).Inc()
	p.logger.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", elapsed))

	return nil
}

func (p *Pipeline) observeDiagnostics(diags diagnostic.Diagnostics) {
	for _, d := range diags.All() {
		p.metrics.Diagnostics.WithLabelValues(d.Severity.String()).Inc()
	}
}
