package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"manifest-pipeline/internal/config"
	"manifest-pipeline/internal/diagnostic"
	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/pipeline"
)

// runtime holds everything a command needs for one invocation.
type runtime struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *prometheus.Registry
	pipeline *pipeline.Pipeline
}

// newRuntime loads the configuration, lets stages adjust the stage
// selection, then builds the logger and the pipeline.
func newRuntime(v *viper.Viper, stages func(*config.StagesConfig)) (*runtime, error) {
	cfg, err := config.Load(v, v.GetString(flagConfig))
	if err != nil {
		return nil, err
	}

	if v.GetBool(flagDebug) {
		cfg.Log.Level = zapcore.DebugLevel.String()
		cfg.Log.Development = true
	}

	if stages != nil {
		stages(&cfg.Stages)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()

	metrics, err := pipeline.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	opts = append(opts, pipeline.WithLogger(logger), pipeline.WithMetrics(metrics))

	p, err := pipeline.New(cfg.Pipeline(), opts...)
	if err != nil {
		return nil, err
	}

	return &runtime{
		v:        v,
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		pipeline: p,
	}, nil
}

// newLogger builds a zap logger writing to stderr so stdout stays free for
// manifests.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// load reads the input manifest.
func (r *runtime) load(path string) (map[string]any, error) {
	doc, err := manifest.LoadFile(path)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("manifest loaded", zap.String("path", path), zap.String("version", manifest.Version(doc)))

	return doc, nil
}

// write serializes doc to --output, or to the command's stdout.
func (r *runtime) write(cmd *cobra.Command, doc map[string]any, inputPath string) error {
	format := manifest.FormatFromPath(inputPath)
	if r.cfg.Output.Format != "" {
		parsed, err := manifest.ParseFormat(r.cfg.Output.Format)
		if err != nil {
			return err
		}

		format = parsed
	}

	if out := r.v.GetString(keyOutputPath); out != "" {
		if err := manifest.WriteFile(doc, out, format); err != nil {
			return err
		}

		r.logger.Info("manifest written", zap.String("path", out), zap.String("format", string(format)))

		return nil
	}

	data, err := manifest.Marshal(doc, format)
	if err != nil {
		return err
	}

	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// report logs every diagnostic and returns an error when any of them is an
// error.
func (r *runtime) report(diags diagnostic.Diagnostics) error {
	for _, d := range diags.All() {
		fields := []zap.Field{
			zap.String("code", d.Code),
			zap.String("component", d.Component),
			zap.String("path", d.Path),
		}

		switch d.Severity {
		case diagnostic.DiagnosticError:
			r.logger.Error(d.Message, fields...)
		case diagnostic.DiagnosticWarning:
			r.logger.Warn(d.Message, fields...)
		default:
			r.logger.Info(d.Message, fields...)
		}
	}

	if err := diags.Error(); err != nil {
		return fmt.Errorf("manifest has %d error(s): %w", len(diags.Errors), err)
	}

	return nil
}

// close flushes the logger and exports metrics when configured.
func (r *runtime) close() error {
	var errs []error

	if path := r.cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, r.metrics); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}

	// Sync fails on terminals, ignore it.
	_ = r.logger.Sync()

	return errors.Join(errs...)
}
