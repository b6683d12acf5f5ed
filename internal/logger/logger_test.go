package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewWithOptions_JSONIncludesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Format: "json", Service: "authd", Version: "1.2.3", Output: &buf})

	l.Info("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "authd", rec["service"])
	assert.Equal(t, "1.2.3", rec["version"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewWithOptions_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Format: "json", Output: &buf})

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	l.InfoContext(ctx, "traced")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])
	assert.NotContains(t, rec, "service")
}

func TestNewWithOptions_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Level: 4, Output: &buf})

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
