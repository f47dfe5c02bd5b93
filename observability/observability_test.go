package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder installs a recording tracer provider for the test.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func shutdownCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, 15*time.Second, cfg.MetricInterval)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SampleRate: 1.5}
	assert.Error(t, cfg.Validate())

	cfg = Config{SampleRate: 0.5, MetricInterval: -time.Second}
	assert.Error(t, cfg.Validate())
}

func TestConfigConversions(t *testing.T) {
	cfg := Config{Endpoint: "collector:4318", Insecure: true, SampleRate: 0.25, MetricInterval: time.Minute}

	tc := cfg.Tracer("newsroom-api", "1.2.3", "staging")
	assert.Equal(t, TracerConfig{
		ServiceName: "newsroom-api", ServiceVersion: "1.2.3", Environment: "staging",
		Endpoint: "collector:4318", Insecure: true, SampleRate: 0.25,
	}, tc)

	mc := cfg.Meter("newsroom-api", "1.2.3", "staging")
	assert.Equal(t, time.Minute, mc.Interval)
	assert.Equal(t, "collector:4318", mc.Endpoint)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("newsroom-api", "1.2.3", "test")
	require.NoError(t, err)

	attrs := res.Set()
	v, ok := attrs.Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "newsroom-api", v.AsString())
	v, ok = attrs.Value("environment")
	require.True(t, ok)
	assert.Equal(t, "test", v.AsString())
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := Config{Insecure: true}
	cfg.ApplyDefaults()

	tp, err := InitTracer(context.Background(), cfg.Tracer("test", "1.0.0", "test"))
	require.NoError(t, err)
	assert.Same(t, tp, otel.GetTracerProvider())
	_ = tp.Shutdown(shutdownCtx(t))
}

func TestInitMeter(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	cfg := Config{}
	cfg.ApplyDefaults()

	mp, err := InitMeter(context.Background(), cfg.Meter("test", "1.0.0", "test"))
	require.NoError(t, err)
	require.NotNil(t, mp)
	_ = mp.Shutdown(shutdownCtx(t))
}

func TestStartSpan(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanAuthenticate)
	SetSpanAttribute(ctx, AttrStrategy, "bearer")
	SetSpanAttribute(ctx, "attempt", 2)
	SetSpanAttribute(ctx, "cached", false)
	SetSpanAttribute(ctx, "strategies", []string{"jwt", "bearer"})
	SetSpanAttribute(ctx, "elapsed", time.Second)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, SpanAuthenticate, ended[0].Name())
	assert.Equal(t, InstrumentationName, ended[0].InstrumentationScope().Name)

	got := attribute.NewSet(ended[0].Attributes()...)
	v, _ := got.Value(AttrStrategy)
	assert.Equal(t, "bearer", v.AsString())
	v, _ = got.Value("attempt")
	assert.Equal(t, int64(2), v.AsInt64())
	v, _ = got.Value("strategies")
	assert.Equal(t, []string{"jwt", "bearer"}, v.AsStringSlice())
	v, _ = got.Value("elapsed")
	assert.Equal(t, "1s", v.AsString())
}

func TestSetSpanError(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanPluginRegister)
	SetSpanError(ctx, nil)
	SetSpanError(ctx, errors.New("scheme exists"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "scheme exists", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		SetSpanAttribute(ctx, AttrStrategy, "jwt")
		SetSpanError(ctx, errors.New("boom"))
	})
}

func TestAuthMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewAuthMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAttempt(ctx, "bearer", OutcomeSuccess, 2*time.Millisecond)
	m.RecordAttempt(ctx, "bearer", OutcomeSuccess, 3*time.Millisecond)
	m.RecordAttempt(ctx, "", OutcomeInvalid, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		byName[md.Name] = md
	}

	attempts, ok := byName["auth.attempts"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range attempts.DataPoints {
		outcome, _ := dp.Attributes.Value(AttrOutcome)
		counts[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeSuccess: 2, OutcomeInvalid: 1}, counts)

	duration, ok := byName["auth.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var total uint64
	for _, dp := range duration.DataPoints {
		total += dp.Count
	}
	assert.Equal(t, uint64(3), total)
}

func TestAuthMetricsNoop(t *testing.T) {
	m, err := NewAuthMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	m.RecordAttempt(context.Background(), "jwt", OutcomeError, time.Millisecond)

	var nilMetrics *AuthMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordAttempt(context.Background(), "jwt", OutcomeSuccess, time.Millisecond)
	})
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, "newsroom-api", "dev", "test")

	require.NoError(t, c.Start(context.Background()))
	h := c.Health(context.Background())
	assert.Equal(t, "telemetry", h.Name)
	assert.Equal(t, "disabled", h.Message)
	assert.Equal(t, "healthy", string(h.Status))
	assert.NoError(t, c.Stop(context.Background()))
}

func TestComponentEnabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	c := NewComponent(Config{Enabled: true, Insecure: true}, "newsroom-api", "dev", "test")
	assert.Equal(t, "degraded", string(c.Health(context.Background()).Status))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "healthy", string(c.Health(context.Background()).Status))

	_ = c.Stop(shutdownCtx(t))
	assert.Equal(t, "degraded", string(c.Health(context.Background()).Status))
}
