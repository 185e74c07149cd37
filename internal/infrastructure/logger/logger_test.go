package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"console stdout", &Config{Level: "info", Format: "console", Output: "stdout"}},
		{"json stderr", &Config{Level: "debug", Format: "json", Output: "stderr"}},
		{"missing time format", &Config{Level: "warn", Format: "json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "wms.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log output")
}

func TestNew_TeesExtraCores(t *testing.T) {
	extra, recorded := observer.New(zapcore.InfoLevel)

	l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"}, extra)
	require.NoError(t, err)

	l.Info("resolved", zap.String("query", "WR-001"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resolved", entries[0].Message)
	assert.Equal(t, "WR-001", entries[0].ContextMap()["query"])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("catalog loaded", zap.Int("clients", 5))
	require.NoError(t, Sync(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "catalog loaded", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 5, entry["clients"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestContextHelpers(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	t.Run("FromContext falls back to no-op", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
		assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	})

	t.Run("request id", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
		assert.Equal(t, "req-1", GetRequestID(WithRequestID(context.Background(), "req-1")))
	})

	t.Run("client id", func(t *testing.T) {
		_, ok := GetClientID(context.Background())
		assert.False(t, ok)

		id, ok := GetClientID(WithClientID(context.Background(), 3))
		assert.True(t, ok)
		assert.Equal(t, 3, id)
	})

	t.Run("Fields", func(t *testing.T) {
		assert.Empty(t, Fields(context.Background()))

		ctx := WithClientID(WithRequestID(context.Background(), "req-3"), 2)
		assert.Equal(t, []zap.Field{zap.String("request_id", "req-3"), zap.Int("client_id", 2)}, Fields(ctx))
	})

	t.Run("L enriches entries", func(t *testing.T) {
		recorded.TakeAll()

		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

		ctx := trace.ContextWithSpanContext(context.Background(), sc)
		ctx = WithContext(ctx, base)
		ctx = WithRequestID(ctx, "req-2")
		ctx = WithClientID(ctx, 1)

		L(ctx).With(zap.String("op", "resolve")).Info("lookup")

		entries := recorded.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
		assert.Equal(t, "0102030405060708", fields["span_id"])
		assert.Equal(t, "req-2", fields["request_id"])
		assert.EqualValues(t, 1, fields["client_id"])
		assert.Equal(t, "resolve", fields["op"])
	})

	t.Run("WithTraceContext without span is a no-op", func(t *testing.T) {
		assert.Same(t, base, WithTraceContext(context.Background(), base))
	})
}
