package pipeline

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/migrate"
	"manifest-pipeline/internal/resolve"
)

const twoStreams = `
version: 0.0.0
type: DeclarativeSource
check:
  type: CheckStream
  stream_names: [items]
definitions:
  requester:
    type: HttpRequester
    url_base: https://api.example.com/v1
    http_method: GET
streams:
  - type: DeclarativeStream
    name: items
    retriever:
      type: SimpleRetriever
      requester:
        $ref: "#/definitions/requester"
        path: /items
      record_selector:
        type: RecordSelector
        extractor:
          type: DpathExtractor
          field_path: []
  - type: DeclarativeStream
    name: users
    retriever:
      type: SimpleRetriever
      requester:
        $ref: "#/definitions/requester"
        path: users
      record_selector:
        type: RecordSelector
        extractor:
          type: DpathExtractor
          field_path: []
`

var frozen = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

func parse(t *testing.T, src string) map[string]any {
	t.Helper()

	doc, err := manifest.Parse([]byte(src))
	require.NoError(t, err)

	return doc
}

func newTestPipeline(t *testing.T, cfg Config, reg prometheus.Registerer) (*Pipeline, *Metrics) {
	t.Helper()

	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	p, err := New(cfg,
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(metrics),
		WithClock(func() time.Time { return frozen }),
	)
	require.NoError(t, err)

	return p, metrics
}

func requesterOf(t *testing.T, doc map[string]any, stream int) map[string]any {
	t.Helper()

	v, ok := manifest.Lookup(doc, manifest.NewPointer("streams", strconv.Itoa(stream), "retriever", "requester"))
	require.True(t, ok)

	requester, ok := v.(map[string]any)
	require.True(t, ok)

	return requester
}

func TestProcess(t *testing.T) {
	p, metrics := newTestPipeline(t, DefaultConfig(), prometheus.NewRegistry())
	doc := parse(t, twoStreams)
	before := manifest.DeepCopy(doc)

	res, err := p.Process(doc)
	require.NoError(t, err)

	assert.Equal(t, before, doc, "input must not be modified")
	assert.Equal(t, "6.47.1", res.Manifest[manifest.KeyVersion])

	names := make([]string, 0, len(res.Applied))
	for _, r := range res.Applied {
		assert.Equal(t, "0.0.0", r.FromVersion)
		assert.Equal(t, "6.47.1", r.ToVersion)
		assert.Equal(t, "2025-04-01T00:00:00+00:00", r.MigratedAt)
		names = append(names, r.Migration)
	}

	assert.Equal(t, []string{"HttpRequesterUrlBaseToUrl", "HttpRequesterPathToUrl"}, names)

	first := requesterOf(t, res.Manifest, 0)
	assert.Equal(t, "https://api.example.com/v1/items", first["url"])
	assert.NotContains(t, first, "url_base")
	assert.NotContains(t, first, "path")

	second := requesterOf(t, res.Manifest, 1)
	assert.Equal(t, "https://api.example.com/v1/users", second["url"])

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LinkedReferences))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageResolve, statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageNormalize, statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageMigrate, statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MigrationsApplied.WithLabelValues("HttpRequesterPathToUrl")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageMigrate, statusError)))
}

func TestProcessIsIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t, DefaultConfig(), nil)

	once, err := p.Process(parse(t, twoStreams))
	require.NoError(t, err)

	twice, err := p.Process(once.Manifest)
	require.NoError(t, err)

	assert.Empty(t, twice.Applied)
	assert.True(t, manifest.Equal(once.Manifest, twice.Manifest))
}

func TestProcessStageSelection(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantVersion any
		wantURLBase bool
		wantLinked  bool
	}{
		{
			name:        "resolve only",
			config:      Config{Resolve: resolve.DefaultConfig()},
			wantVersion: "0.0.0",
			wantURLBase: true,
		},
		{
			name:        "resolve and normalize",
			config:      Config{Normalize: true, Resolve: resolve.DefaultConfig()},
			wantVersion: "0.0.0",
			wantURLBase: true,
			wantLinked:  true,
		},
		{
			name:        "resolve and migrate",
			config:      Config{Migrate: true, Resolve: resolve.DefaultConfig()},
			wantVersion: "6.47.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPipeline(t, tt.config, nil)

			res, err := p.Process(parse(t, twoStreams))
			require.NoError(t, err)

			assert.Equal(t, tt.wantVersion, res.Manifest[manifest.KeyVersion])
			assert.Equal(t, tt.wantURLBase, requesterOf(t, res.Manifest, 0)["url_base"] != nil)

			_, linked := manifest.Lookup(res.Manifest, manifest.NewPointer("definitions", "linked"))
			assert.Equal(t, tt.wantLinked, linked)
		})
	}
}

func TestProcessValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validate = true

	p, metrics := newTestPipeline(t, cfg, prometheus.NewRegistry())

	res, err := p.Process(parse(t, twoStreams))
	require.NoError(t, err)
	assert.False(t, res.Diagnostics.HasErrors(), res.Diagnostics.Error())

	broken := parse(t, twoStreams)
	delete(broken, manifest.KeyStreams)

	res, err = p.Process(broken)
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.HasErrors())
	assert.Positive(t, testutil.ToFloat64(metrics.Diagnostics.WithLabelValues("error")))
}

func TestProcessErrors(t *testing.T) {
	t.Run("missing reference", func(t *testing.T) {
		p, metrics := newTestPipeline(t, DefaultConfig(), nil)
		doc := parse(t, strings.ReplaceAll(twoStreams, "#/definitions/requester", "#/definitions/missing"))

		_, err := p.Process(doc)

		var refErr *resolve.ReferenceResolutionError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageResolve, statusError)))
	})

	t.Run("invalid version", func(t *testing.T) {
		p, metrics := newTestPipeline(t, DefaultConfig(), nil)
		doc := parse(t, strings.Replace(twoStreams, "version: 0.0.0", "version: not-a-version", 1))

		_, err := p.Process(doc)

		var applyErr *migrate.MigrationApplyError
		require.ErrorAs(t, err, &applyErr)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageRuns.WithLabelValues(StageMigrate, statusError)))
	})
}

func TestDisabledStages(t *testing.T) {
	p, _ := newTestPipeline(t, Config{Resolve: resolve.DefaultConfig()}, nil)
	doc := parse(t, twoStreams)

	_, err := p.Normalize(doc)
	assert.True(t, errors.Is(err, ErrStageDisabled))

	_, _, err = p.Migrate(doc)
	assert.True(t, errors.Is(err, ErrStageDisabled))

	_, err = p.Validate(doc)
	assert.True(t, errors.Is(err, ErrStageDisabled))

	assert.Nil(t, p.Registry())
}

func TestWithRegistry(t *testing.T) {
	reg, err := migrate.NewRegistry()
	require.NoError(t, err)

	p, err := New(DefaultConfig(), WithRegistry(reg), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	res, err := p.Process(parse(t, twoStreams))
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	assert.Equal(t, "0.0.0", res.Manifest[manifest.KeyVersion])
	assert.Same(t, reg, p.Registry())
}

func TestNewMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	metrics.StageRuns.WithLabelValues(StageResolve, statusSuccess).Inc()
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.StageRuns))

	_, err = NewMetrics(reg)
	require.Error(t, err)
}
