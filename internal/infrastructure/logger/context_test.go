package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func validSpanContext() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithContext_RoundTrip(t *testing.T) {
	log := zap.NewExample()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestRequestAndOrganizationIDs(t *testing.T) {
	ctx := WithOrganizationID(WithRequestID(context.Background(), "req-1"), "org-9")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "org-9", GetOrganizationID(ctx))

	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetOrganizationID(context.Background()))
}

func TestL_AddsCorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithOrganizationID(ctx, "org-1")
	ctx = trace.ContextWithSpanContext(ctx, validSpanContext())

	L(ctx).Info("stored document")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "org-1", fields["organization_id"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}

func TestEnrich_NoFieldsReturnsSameLogger(t *testing.T) {
	log := zap.NewExample()
	assert.Same(t, log, Enrich(context.Background(), log))
	assert.NotNil(t, Enrich(context.Background(), nil))
}
