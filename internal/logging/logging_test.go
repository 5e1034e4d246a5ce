package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xshortlink/internal/logging"
)

func build(t *testing.T, b *logging.Builder) logging.LoggerWithLevel {
	t.Helper()
	l, cleanup, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	return l
}

func TestLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf).SetLevel(logging.LevelDebug))

	ctx := context.Background()
	l.Debug(ctx, "debug message")
	l.Info(ctx, "info message")
	l.Warn(ctx, "warn message")
	l.Error(ctx, "error message", logging.Err(os.ErrNotExist))

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message", "file does not exist"} {
		assert.Contains(t, out, want)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf).SetLevelString("warn"))

	ctx := context.Background()
	l.Info(ctx, "hidden")
	l.Warn(ctx, "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.False(t, l.Enabled(ctx, logging.LevelInfo))
	l.SetLevel(logging.LevelDebug)
	assert.Equal(t, logging.LevelDebug, l.GetLevel())
	assert.True(t, l.Enabled(ctx, logging.LevelDebug))

	l.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf).SetLevel(logging.LevelWarn))

	child := l.With(logging.Component("cache"))
	child.Info(context.Background(), "before")
	l.SetLevel(logging.LevelInfo)
	child.Info(context.Background(), "after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
	assert.Contains(t, out, "component=cache")
}

func TestLogger_JSONWithRequestAndTrace(t *testing.T) {
	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf).SetFormat("JSON"))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = logging.WithRequestID(ctx, "req-1")

	l.Info(ctx, "hello", slog.Int("n", 1))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "req-1", rec[logging.KeyRequestID])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec[logging.KeyTraceID])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec[logging.KeySpanID])
	assert.EqualValues(t, 1, rec["n"])
}

func TestLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf))

	//nolint:staticcheck // 验证 nil context 不会 panic
	assert.NotPanics(t, func() { l.Info(nil, "no ctx") })
	assert.Contains(t, buf.String(), "no ctx")
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logging.RequestID(ctx))
	assert.Equal(t, ctx, logging.WithRequestID(ctx, ""))
	assert.Equal(t, "abc", logging.RequestID(logging.WithRequestID(ctx, "abc")))
}

func TestBuilder_Errors(t *testing.T) {
	_, _, err := logging.New().SetLevelString("verbose").Build()
	assert.ErrorContains(t, err, "unknown level")

	_, _, err = logging.New().SetFormat("xml").Build()
	assert.ErrorContains(t, err, "unknown format")

	_, _, err = logging.New().SetRotation("  ", logging.Rotation{}).Build()
	assert.ErrorIs(t, err, logging.ErrEmptyFilename)
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, cleanup, err := logging.New().SetRotation(path, logging.Rotation{MaxSizeMB: 1}).Build()
	require.NoError(t, err)

	l.Info(context.Background(), "to file")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logging.Level{
		"debug":     logging.LevelDebug,
		" INFO ":    logging.LevelInfo,
		"warning":   logging.LevelWarn,
		"Warn":      logging.LevelWarn,
		"error":     logging.LevelError,
	}
	for in, want := range tests {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	var lv logging.Level
	require.NoError(t, lv.UnmarshalText([]byte("error")))
	assert.Equal(t, logging.LevelError, lv)
	assert.Error(t, lv.UnmarshalText([]byte("loud")))
	assert.Equal(t, "WARN", logging.LevelWarn.String())
}

func TestDiscardAndSlog(t *testing.T) {
	d := logging.Discard()
	assert.NotPanics(t, func() { d.Error(context.Background(), "dropped") })
	assert.False(t, d.Enabled(context.Background(), logging.LevelError))

	var buf bytes.Buffer
	l := build(t, logging.New().SetOutput(&buf))
	logging.Slog(l).Info("through slog")
	assert.True(t, strings.Contains(buf.String(), "through slog"))
}
