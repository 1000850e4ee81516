package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestCtxHelpersAddTraceFields(t *testing.T) {
	logs := observe(t)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "renew")
	defer span.End()

	traceID := span.SpanContext().TraceID().String()
	assert.Equal(t, traceID, GetTraceID(ctx))

	DebugCtx(ctx, "renewing")
	InfoCtx(ctx, "renewed", zap.String("user_id", "u-1"))
	WarnCtx(ctx, "slow renewal")
	ErrorCtx(ctx, "renewal failed", errors.New("refresh rejected"))

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, traceID, fields["trace_id"], entry.Message)
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"], entry.Message)
	}
	assert.Equal(t, "u-1", entries[1].ContextMap()["user_id"])
	assert.Equal(t, "refresh rejected", entries[3].ContextMap()["error"])
}

func TestCtxHelpersWithoutSpan(t *testing.T) {
	logs := observe(t)
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Nil(t, TraceFields(ctx))

	ErrorCtx(ctx, "no span", nil)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ContextMap())
}
