package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestProviders(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader, Observer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp), WithInstrumentationName("test"))
	require.NoError(t, err)
	return exporter, reader, obs
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				out[status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestOTelObserver_Span(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	ctx, span := obs.Start(context.Background(), SpanOptions{
		Component: "resolver",
		Operation: "create",
		Attrs:     []attribute.KeyValue{attribute.String("url", "https://example.com")},
	})
	require.NotNil(t, ctx)
	span.End(Result{Attrs: []attribute.KeyValue{attribute.Int("attempts", 1)}})
	span.End(Result{Err: errors.New("ignored")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "resolver.create", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	assert.Equal(t, map[string]int64{"ok": 1}, collectSum(t, reader, metricOperationTotal))
}

func TestOTelObserver_Error(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	_, span := obs.Start(context.Background(), SpanOptions{Operation: "get", Kind: KindServer})
	span.End(Result{Err: errors.New("boom")})

	_, span = obs.Start(context.Background(), SpanOptions{Operation: "get", Kind: KindClient})
	span.End(Result{Status: StatusError})

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "unknown.get", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	assert.Equal(t, "operation failed", spans[1].Status.Description)

	assert.Equal(t, map[string]int64{"error": 2}, collectSum(t, reader, metricOperationTotal))
}

func TestOTelObserver_CanceledContextStillRecords(t *testing.T) {
	_, reader, obs := newTestProviders(t)

	ctx, cancel := context.WithCancel(context.Background())
	_, span := obs.Start(ctx, SpanOptions{Component: "c", Operation: "op"})
	cancel()
	span.End(Result{})

	assert.Equal(t, map[string]int64{"ok": 1}, collectSum(t, reader, metricOperationTotal))
}

func TestStart(t *testing.T) {
	//nolint:staticcheck // nil context 兜底
	ctx, span := Start(nil, nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)

	ctx, span = Start(context.Background(), NoopObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { span.End(Result{}) })

	ctx, span = Start(context.Background(), nilObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
}

type nilObserver struct{}

func (nilObserver) Start(context.Context, SpanOptions) (context.Context, Span) { return nil, nil }

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: errors.New("x")}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: errors.New("x")}))
}

func TestNewOTelObserver_Defaults(t *testing.T) {
	obs, err := NewOTelObserver(WithTracerProvider(nil), WithMeterProvider(nil), WithInstrumentationName(""))
	require.NoError(t, err)
	_, span := obs.Start(context.Background(), SpanOptions{})
	assert.NotPanics(t, func() { span.End(Result{}) })
}
